package gin_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ginpkg "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	infragin "github.com/jonesrussell/infobox/infrastructure/gin"
	"github.com/jonesrussell/infobox/infrastructure/logger"
)

func init() {
	ginpkg.SetMode(ginpkg.TestMode)
}

func newTestRouter(t *testing.T, log logger.Logger, handler ginpkg.HandlerFunc) *ginpkg.Engine {
	t.Helper()

	router := ginpkg.New()
	router.Use(infragin.RequestIDLoggerMiddleware(log))
	if handler == nil {
		handler = func(c *ginpkg.Context) { c.String(http.StatusOK, "ok") }
	}
	router.GET("/test", handler)
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestIDLoggerMiddleware_GeneratesID(t *testing.T) {
	t.Parallel()

	w := serve(newTestRouter(t, logger.NewNop(), nil), httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	reqID := w.Header().Get(infragin.RequestIDHeader)
	assert.Len(t, reqID, 32)
}

func TestRequestIDLoggerMiddleware_PreservesExistingID(t *testing.T) {
	t.Parallel()

	const inboundID = "trace-from-upstream-abc123"

	var gotCtxID string
	router := newTestRouter(t, logger.NewNop(), func(c *ginpkg.Context) {
		gotCtxID = c.GetString(infragin.RequestIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, inboundID)
	w := serve(router, req)

	assert.Equal(t, inboundID, w.Header().Get(infragin.RequestIDHeader))
	assert.Equal(t, inboundID, gotCtxID)
}

func TestRequestIDLoggerMiddleware_RejectsOversizedID(t *testing.T) {
	t.Parallel()

	oversized := strings.Repeat("x", 200)
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(infragin.RequestIDHeader, oversized)
	w := serve(newTestRouter(t, logger.NewNop(), nil), req)

	got := w.Header().Get(infragin.RequestIDHeader)
	assert.NotEqual(t, oversized, got)
	assert.NotEmpty(t, got)
}

func TestRequestIDLoggerMiddleware_ScopedLoggerCarriesID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	router := newTestRouter(t, logger.NewWithCore(core), func(c *ginpkg.Context) {
		logger.FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, w.Header().Get(infragin.RequestIDHeader), logs.All()[0].ContextMap()[infragin.RequestIDKey])
}

func TestRequestIDLoggerMiddleware_UniqueIDs(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, logger.NewNop(), nil)
	seen := make(map[string]bool, 100)
	for range 100 {
		id := serve(router, httptest.NewRequest(http.MethodGet, "/test", http.NoBody)).Header().Get(infragin.RequestIDHeader)
		require.False(t, seen[id], "duplicate request id %s", id)
		seen[id] = true
	}
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	router := ginpkg.New()
	router.Use(infragin.CORSMiddleware(infragin.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"https://infobox.example"},
	}))
	router.GET("/test", func(c *ginpkg.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin echoed", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://infobox.example")
		w := serve(router, req)
		assert.Equal(t, "https://infobox.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("foreign origin gets no headers", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Origin", "https://evil.example")
		w := serve(router, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodOptions, "/test", http.NoBody)
		req.Header.Set("Origin", "https://infobox.example")
		w := serve(router, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	router := ginpkg.New()
	router.Use(infragin.RecoveryMiddleware(logger.NewWithCore(core)))
	router.GET("/boom", func(*ginpkg.Context) { panic("boom") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

// Not parallel: NewServer sets the global gin mode.
func TestServerBuilder_HealthAndReady(t *testing.T) {
	healthy := true
	srv := infragin.NewServerBuilder("infobox", 0).
		WithVersion("1.2.3").
		WithElasticsearchHealthCheck(func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("connection refused")
		}).
		WithRoutes(func(r *ginpkg.Engine) {
			r.GET("/hello", func(c *ginpkg.Context) { c.String(http.StatusOK, "hi") })
		}).
		Build()

	router := srv.Router()

	w := serve(router, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, w.Body.String(), `"elasticsearch"`)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/health/memory", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutines")

	w = serve(router, httptest.NewRequest(http.MethodGet, "/hello", http.NoBody))
	assert.Equal(t, "hi", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(infragin.RequestIDHeader))

	healthy = false
	w = serve(router, httptest.NewRequest(http.MethodGet, "/ready", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = serve(router, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
