package main

import (
	"context"
	"fmt"
	"os"

	infraconfig "github.com/jonesrussell/infobox/infrastructure/config"
	infraes "github.com/jonesrussell/infobox/infrastructure/elasticsearch"
	infralogger "github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/infrastructure/profiling"
	"github.com/jonesrussell/infobox/internal/api"
	"github.com/jonesrussell/infobox/internal/config"
	"github.com/jonesrussell/infobox/internal/elasticsearch"
	"github.com/jonesrussell/infobox/internal/memstore"
	"github.com/jonesrussell/infobox/internal/metrics"
	"github.com/jonesrussell/infobox/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Initialize logger
	log, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	// Start profiling server (if enabled)
	profiling.StartPprofServer(cfg.Profiling, log)
	if pyroProfiler, pyroErr := profiling.StartPyroscope(cfg.Profiling, cfg.Service.Name, cfg.Service.Version, log); pyroErr != nil {
		log.Warn("Pyroscope failed to start", infralogger.Error(pyroErr))
	} else if pyroProfiler != nil {
		defer pyroProfiler.Stop() //nolint:errcheck // best-effort cleanup
	}

	log.Info("Starting infobox service",
		infralogger.String("name", cfg.Service.Name),
		infralogger.String("version", cfg.Service.Version),
		infralogger.Int("port", cfg.Server.Port),
		infralogger.String("repository", cfg.Repository.Driver),
		infralogger.Bool("debug", cfg.Service.Debug),
	)

	ctx := context.Background()

	repo, err := setupRepository(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to set up repository", infralogger.Error(err))
		return 1
	}

	return runServer(ctx, cfg, repo, log)
}

// loadConfig loads configuration from config file.
func loadConfig() (*config.Config, error) {
	configPath := infraconfig.GetConfigPath("config.yml")
	return config.Load(configPath)
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (infralogger.Logger, error) {
	return infralogger.New(infralogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
		Service:     cfg.Service.Name,
	})
}

// setupRepository connects the configured document store.
func setupRepository(ctx context.Context, cfg *config.Config, log infralogger.Logger) (service.ContentRepository, error) {
	if cfg.Repository.Driver == config.DriverMemory {
		log.Warn("Using in-memory repository; content is lost on restart")
		return memstore.New(), nil
	}

	log.Info("Connecting to Elasticsearch", infralogger.String("url", cfg.Elasticsearch.URL))
	esClient, err := infraes.NewClient(ctx, cfg.Elasticsearch.Config, log)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	repo := elasticsearch.NewRepository(esClient, cfg.RepositoryOptions(), log)
	if err = repo.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	log.Info("Elasticsearch index ready", infralogger.String("index", repo.Index()))
	return repo, nil
}

// runServer wires the services and HTTP server, then runs with graceful shutdown.
func runServer(ctx context.Context, cfg *config.Config, repo service.ContentRepository, log infralogger.Logger) int {
	m := metrics.New()

	searchService := service.NewSearchService(repo, cfg.Limits(), m, log)
	contentService := service.NewContentService(repo, nil, m, log)

	handler := api.NewHandler(searchService, contentService)
	server := api.NewServer(handler, cfg, log, repo.Ping, api.RouteOptions{
		JWTSecret: cfg.Auth.JWTSecret,
		AdminRole: cfg.Auth.AdminRole,
		Metrics:   m.Handler(),
	})

	if runErr := server.Run(ctx); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return 1
	}

	log.Info("Infobox service exited cleanly")
	return 0
}
