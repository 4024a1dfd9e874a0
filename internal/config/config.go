// Package config loads the InfoBox service configuration.
package config

import (
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/infobox/infrastructure/config"
	infraes "github.com/jonesrussell/infobox/infrastructure/elasticsearch"
	infragin "github.com/jonesrussell/infobox/infrastructure/gin"
	"github.com/jonesrussell/infobox/infrastructure/profiling"
	"github.com/jonesrussell/infobox/internal/domain"
	"github.com/jonesrussell/infobox/internal/elasticsearch"
)

// Repository drivers.
const (
	DriverElasticsearch = "elasticsearch"
	DriverMemory        = "memory"
)

const (
	defaultPort      = 8090
	defaultAdminRole = "admin"
)

// Config holds all configuration for the InfoBox service.
type Config struct {
	Service       ServiceConfig             `yaml:"service"`
	Server        infraconfig.ServerConfig  `yaml:"server"`
	Repository    RepositoryConfig          `yaml:"repository"`
	Elasticsearch ElasticsearchConfig       `yaml:"elasticsearch"`
	Auth          AuthConfig                `yaml:"auth"`
	Logging       infraconfig.LoggingConfig `yaml:"logging"`
	CORS          infragin.CORSConfig       `yaml:"cors"`
	Profiling     profiling.Config          `yaml:"profiling"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `env:"INFOBOX_VERSION"           yaml:"version"`
	Debug           bool          `env:"INFOBOX_DEBUG"             yaml:"debug"`
	DefaultPageSize int           `env:"INFOBOX_DEFAULT_PAGE_SIZE" yaml:"default_page_size"`
	MaxPageSize     int           `env:"INFOBOX_MAX_PAGE_SIZE"     yaml:"max_page_size"`
	MaxQueryLength  int           `yaml:"max_query_length"`
	SearchTimeout   time.Duration `yaml:"search_timeout"`
}

// RepositoryConfig selects the document store.
type RepositoryConfig struct {
	Driver string `env:"REPOSITORY_DRIVER" yaml:"driver"`
}

// ElasticsearchConfig is the connection plus the content index settings.
type ElasticsearchConfig struct {
	infraes.Config `yaml:",inline"`

	Index   string `env:"ELASTICSEARCH_INDEX" yaml:"index"`
	Refresh string `yaml:"refresh"`
}

// AuthConfig verifies admin tokens issued by the auth service.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
	AdminRole string `yaml:"admin_role"`
}

// Load loads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	// Service defaults
	if cfg.Service.Name == "" {
		cfg.Service.Name = "infobox"
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "1.0.0"
	}
	if cfg.Service.MaxPageSize == 0 {
		cfg.Service.MaxPageSize = domain.DefaultMaxLimit
	}
	if cfg.Service.DefaultPageSize == 0 {
		cfg.Service.DefaultPageSize = domain.DefaultLimit
	}
	if cfg.Service.MaxQueryLength == 0 {
		cfg.Service.MaxQueryLength = domain.DefaultMaxQuery
	}
	if cfg.Service.SearchTimeout == 0 {
		cfg.Service.SearchTimeout = elasticsearch.DefaultSearchTimeout
	}

	cfg.Server.SetDefaults(defaultPort)

	if cfg.Repository.Driver == "" {
		cfg.Repository.Driver = DriverElasticsearch
	}

	// Elasticsearch defaults
	cfg.Elasticsearch.SetDefaults()
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = elasticsearch.DefaultIndex
	}
	if cfg.Elasticsearch.Refresh == "" {
		cfg.Elasticsearch.Refresh = elasticsearch.DefaultRefresh
	}

	if cfg.Auth.AdminRole == "" {
		cfg.Auth.AdminRole = defaultAdminRole
	}

	cfg.Logging.SetDefaults()
	cfg.CORS.SetDefaults()
	cfg.Profiling.SetDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Service.MaxPageSize < 1 {
		return &infraconfig.ValidationError{Field: "service.max_page_size", Message: "must be greater than 0"}
	}
	if c.Service.DefaultPageSize < 1 || c.Service.DefaultPageSize > c.Service.MaxPageSize {
		return &infraconfig.ValidationError{
			Field:   "service.default_page_size",
			Message: fmt.Sprintf("must be between 1 and %d", c.Service.MaxPageSize),
		}
	}
	if c.Service.MaxQueryLength < 1 {
		return &infraconfig.ValidationError{Field: "service.max_query_length", Message: "must be greater than 0"}
	}
	if err := infraconfig.ValidateOneOf("repository.driver", c.Repository.Driver, DriverElasticsearch, DriverMemory); err != nil {
		return err
	}
	if c.Repository.Driver == DriverElasticsearch {
		if err := infraconfig.ValidateURL("elasticsearch.url", c.Elasticsearch.URL); err != nil {
			return err
		}
		if err := infraconfig.ValidateRequired("elasticsearch.index", c.Elasticsearch.Index); err != nil {
			return err
		}
		if err := infraconfig.ValidateOneOf("elasticsearch.refresh", c.Elasticsearch.Refresh, "true", "false", "wait_for"); err != nil {
			return err
		}
	}
	if err := infraconfig.ValidateRequired("auth.jwt_secret", c.Auth.JWTSecret); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Limits returns the search bounds from the service section.
func (c *Config) Limits() domain.Limits {
	return domain.Limits{
		DefaultLimit:   c.Service.DefaultPageSize,
		MaxLimit:       c.Service.MaxPageSize,
		MaxQueryLength: c.Service.MaxQueryLength,
	}
}

// RepositoryOptions returns the Elasticsearch repository settings.
func (c *Config) RepositoryOptions() elasticsearch.Options {
	return elasticsearch.Options{
		Index:         c.Elasticsearch.Index,
		Refresh:       c.Elasticsearch.Refresh,
		SearchTimeout: c.Service.SearchTimeout,
	}
}
