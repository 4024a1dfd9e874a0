package api

import (
	"context"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/infobox/infrastructure/gin"
	"github.com/jonesrussell/infobox/infrastructure/logger"
	"github.com/jonesrussell/infobox/internal/config"
)

// NewServer creates a new HTTP server using the infrastructure gin package.
// ping backs the repository health check.
func NewServer(
	handler *Handler,
	cfg *config.Config,
	log logger.Logger,
	ping func(context.Context) error,
	opts RouteOptions,
) *infragin.Server {
	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Server.Port).
		WithLogger(log).
		WithHost(cfg.Server.Host).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout).
		WithCORS(cfg.CORS)

	if cfg.Repository.Driver == config.DriverElasticsearch {
		builder = builder.WithElasticsearchHealthCheck(ping)
	} else {
		builder = builder.WithHealthCheck("repository", infragin.PingHealthChecker("Repository", ping))
	}

	return builder.
		WithRoutes(func(router *gin.Engine) {
			// Setup service-specific routes (health routes added by builder)
			SetupServiceRoutes(router, handler, opts)
		}).
		Build()
}
