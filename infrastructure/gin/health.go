package gin

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the state of the service or one dependency.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const checkTimeout = 2 * time.Second

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is one dependency's status.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) CheckResult

// HealthOptions configures RegisterHealthRoutes.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	// StartTime defaults to the first registration in the process.
	StartTime time.Time
	Checks    map[string]HealthChecker
}

// MemoryStats is the /health/memory body.
type MemoryStats struct {
	AllocMB      float64 `json:"alloc_mb"`
	TotalAllocMB float64 `json:"total_alloc_mb"`
	SysMB        float64 `json:"sys_mb"`
	HeapInuseMB  float64 `json:"heap_inuse_mb"`
	NumGC        uint32  `json:"num_gc"`
	Goroutines   int     `json:"goroutines"`
}

var (
	processStart     time.Time
	processStartOnce sync.Once
)

// RegisterHealthRoutes adds:
//   - GET/HEAD /health: service status and per-check results (503 when unhealthy)
//   - GET /health/memory: runtime memory statistics
//   - GET /ready: 200 once every check passes, 503 otherwise
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	if opts.StartTime.IsZero() {
		processStartOnce.Do(func() { processStart = time.Now() })
		opts.StartTime = processStart
	}

	router.GET("/health", healthHandler(opts))
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health/memory", memoryHandler)
	router.GET("/ready", readyHandler(opts.Checks))
}

func runChecks(ctx context.Context, checks map[string]HealthChecker) (HealthStatus, map[string]CheckResult) {
	status := HealthStatusHealthy
	if len(checks) == 0 {
		return status, nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make(map[string]CheckResult, len(checks))
	for name, check := range checks {
		result := check(ctx)
		results[name] = result
		switch {
		case result.Status == HealthStatusUnhealthy:
			status = HealthStatusUnhealthy
		case result.Status == HealthStatusDegraded && status == HealthStatusHealthy:
			status = HealthStatusDegraded
		}
	}
	return status, results
}

func healthHandler(opts HealthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, results := runChecks(c.Request.Context(), opts.Checks)

		code := http.StatusOK
		if status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, HealthResponse{
			Status:  status,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
			Uptime:  time.Since(opts.StartTime).Round(time.Second).String(),
			Checks:  results,
		})
	}
}

func readyHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, results := runChecks(c.Request.Context(), checks)
		if status == HealthStatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "checks": results})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	}
}

func memoryHandler(c *gin.Context) {
	const mb = 1 << 20

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, MemoryStats{
		AllocMB:      float64(m.Alloc) / mb,
		TotalAllocMB: float64(m.TotalAlloc) / mb,
		SysMB:        float64(m.Sys) / mb,
		HeapInuseMB:  float64(m.HeapInuse) / mb,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
	})
}

// PingHealthChecker turns a ping function into a checker that reports
// unhealthy when ping fails.
func PingHealthChecker(name string, ping func(context.Context) error) HealthChecker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := ping(ctx)
		latency := time.Since(start).String()

		if err != nil {
			return CheckResult{Status: HealthStatusUnhealthy, Message: name + " unreachable: " + err.Error(), Latency: latency}
		}
		return CheckResult{Status: HealthStatusHealthy, Message: name + " OK", Latency: latency}
	}
}
