package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application counters
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress uint64
	RequestsFailed     uint64
	JobsSubmitted      uint64
	JobsRunning        uint64
	JobsCompleted      uint64
	JobsFailed         uint64
	StartTime          time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// JobMetrics adapts the global counters to the lifecycle hooks the job
// service accepts.
type JobMetrics struct{}

func (JobMetrics) JobSubmitted() { atomic.AddUint64(&globalMetrics.JobsSubmitted, 1) }
func (JobMetrics) JobStarted()   { atomic.AddUint64(&globalMetrics.JobsRunning, 1) }
func (JobMetrics) JobCompleted() {
	atomic.AddUint64(&globalMetrics.JobsRunning, ^uint64(0))
	atomic.AddUint64(&globalMetrics.JobsCompleted, 1)
}
func (JobMetrics) JobFailed() {
	atomic.AddUint64(&globalMetrics.JobsRunning, ^uint64(0))
	atomic.AddUint64(&globalMetrics.JobsFailed, 1)
}

// MetricsMiddleware counts requests and failures
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
		atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
		defer atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 500 {
			atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
		}
	})
}

// MetricsHandler exposes the counters as JSON
func MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		out := map[string]any{
			"uptime_seconds":       int64(time.Since(globalMetrics.StartTime).Seconds()),
			"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
			"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
			"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
			"jobs_submitted":       atomic.LoadUint64(&globalMetrics.JobsSubmitted),
			"jobs_running":         atomic.LoadUint64(&globalMetrics.JobsRunning),
			"jobs_completed":       atomic.LoadUint64(&globalMetrics.JobsCompleted),
			"jobs_failed":          atomic.LoadUint64(&globalMetrics.JobsFailed),
			"goroutines":           runtime.NumGoroutine(),
			"heap_alloc_bytes":     m.HeapAlloc,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
