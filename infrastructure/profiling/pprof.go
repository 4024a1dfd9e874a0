package profiling

import (
	"errors"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // bound to localhost only
	"time"

	"github.com/jonesrussell/infobox/infrastructure/logger"
)

// StartPprofServer serves /debug/pprof on localhost when cfg.Pprof is set.
// It returns immediately; the listener runs until the process exits.
func StartPprofServer(cfg Config, log logger.Logger) {
	if !cfg.Pprof {
		return
	}
	cfg.SetDefaults()

	addr := net.JoinHostPort("localhost", cfg.PprofPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server stopped", logger.Error(err))
		}
	}()
}
