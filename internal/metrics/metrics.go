package metrics

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Metrics holds process-wide motion and API counters.
type Metrics struct {
	// Motion counters
	TotalMoves    int64 `json:"total_moves"`
	AbortedMoves  int64 `json:"aborted_moves"`
	UserStopped   int64 `json:"user_stopped_moves"`
	TotalHomings  int64 `json:"total_homings"`
	FailedHomings int64 `json:"failed_homings"`

	// Arbiter wait time, accumulated as a moving average in milliseconds
	AvgArbiterWaitTime float64 `json:"avg_arbiter_wait_ms"`

	// System metrics
	Uptime         int64   `json:"uptime_seconds"`
	MemoryUsed     uint64  `json:"memory_used_bytes"`
	MemoryTotal    uint64  `json:"memory_total_bytes"`
	GoroutineCount int     `json:"goroutine_count"`

	// API metrics
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	AvgResponseTime float64 `json:"avg_response_time_ms"`

	mu        sync.RWMutex
	startTime time.Time
}

// NewMetrics constructs a Metrics with its clock started.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// IncrementMoves records one completed move admission, successful or not.
func (m *Metrics) IncrementMoves() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalMoves++
}

// IncrementAbortedMoves records one move stopped by an interlock.
func (m *Metrics) IncrementAbortedMoves() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AbortedMoves++
}

// IncrementUserStopped records one move stopped by Stop().
func (m *Metrics) IncrementUserStopped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UserStopped++
}

// IncrementHomings records one homing run.
func (m *Metrics) IncrementHomings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalHomings++
}

// IncrementFailedHomings records one homing run that did not reach the limit.
func (m *Metrics) IncrementFailedHomings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedHomings++
}

// RecordArbiterWait folds one arbiter Acquire() wait into the moving average.
func (m *Metrics) RecordArbiterWait(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := float64(d.Microseconds()) / 1000.0
	if m.AvgArbiterWaitTime == 0 {
		m.AvgArbiterWaitTime = ms
	} else {
		m.AvgArbiterWaitTime = (m.AvgArbiterWaitTime * 0.9) + (ms * 0.1)
	}
}

// IncrementRequests records one handled HTTP request.
func (m *Metrics) IncrementRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRequests++
}

// IncrementErrors records one HTTP response with status >= 400.
func (m *Metrics) IncrementErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalErrors++
}

// RecordResponseTime folds one handler duration into the moving average.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := float64(duration.Milliseconds())
	if m.AvgResponseTime == 0 {
		m.AvgResponseTime = ms
	} else {
		m.AvgResponseTime = (m.AvgResponseTime * 0.9) + (ms * 0.1)
	}
}

// UpdateSystemMetrics refreshes uptime, memory, and goroutine counts.
func (m *Metrics) UpdateSystemMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Uptime = int64(time.Since(m.startTime).Seconds())

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.MemoryUsed = memStats.Alloc
	m.MemoryTotal = memStats.Sys

	m.GoroutineCount = runtime.NumGoroutine()
}

// GetMetrics returns a JSON-friendly snapshot of all counters.
func (m *Metrics) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"motion": map[string]interface{}{
			"total_moves":   m.TotalMoves,
			"aborted_moves": m.AbortedMoves,
			"user_stopped":  m.UserStopped,
			"success_rate": func() float64 {
				if m.TotalMoves == 0 {
					return 100.0
				}
				return float64(m.TotalMoves-m.AbortedMoves) / float64(m.TotalMoves) * 100
			}(),
		},
		"homing": map[string]interface{}{
			"total":  m.TotalHomings,
			"failed": m.FailedHomings,
		},
		"arbiter": map[string]interface{}{
			"avg_wait_ms": m.AvgArbiterWaitTime,
		},
		"system": map[string]interface{}{
			"uptime_seconds":     m.Uptime,
			"memory_used_bytes":  m.MemoryUsed,
			"memory_total_bytes": m.MemoryTotal,
			"memory_used_mb":     m.MemoryUsed / 1024 / 1024,
			"goroutines":         m.GoroutineCount,
		},
		"api": map[string]interface{}{
			"total_requests":       m.TotalRequests,
			"total_errors":         m.TotalErrors,
			"avg_response_time_ms": m.AvgResponseTime,
			"error_rate": func() float64 {
				if m.TotalRequests == 0 {
					return 0.0
				}
				return float64(m.TotalErrors) / float64(m.TotalRequests) * 100
			}(),
		},
	}
}

// PrometheusFormat renders the counters in Prometheus text exposition format.
func (m *Metrics) PrometheusFormat() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return `# HELP stepperd_moves_total Total number of move admissions
# TYPE stepperd_moves_total counter
stepperd_moves_total ` + formatInt64(m.TotalMoves) + `

# HELP stepperd_moves_aborted Number of moves aborted by an interlock
# TYPE stepperd_moves_aborted counter
stepperd_moves_aborted ` + formatInt64(m.AbortedMoves) + `

# HELP stepperd_moves_user_stopped Number of moves stopped by Stop()
# TYPE stepperd_moves_user_stopped counter
stepperd_moves_user_stopped ` + formatInt64(m.UserStopped) + `

# HELP stepperd_homings_total Total number of homing runs
# TYPE stepperd_homings_total counter
stepperd_homings_total ` + formatInt64(m.TotalHomings) + `

# HELP stepperd_homings_failed Number of homing runs that did not reach the limit
# TYPE stepperd_homings_failed counter
stepperd_homings_failed ` + formatInt64(m.FailedHomings) + `

# HELP stepperd_arbiter_wait_ms Average motion arbiter acquire wait in milliseconds
# TYPE stepperd_arbiter_wait_ms gauge
stepperd_arbiter_wait_ms ` + formatFloat64(m.AvgArbiterWaitTime) + `

# HELP stepperd_uptime_seconds Uptime in seconds
# TYPE stepperd_uptime_seconds gauge
stepperd_uptime_seconds ` + formatInt64(m.Uptime) + `

# HELP stepperd_memory_used_bytes Memory used in bytes
# TYPE stepperd_memory_used_bytes gauge
stepperd_memory_used_bytes ` + formatUint64(m.MemoryUsed) + `

# HELP stepperd_goroutines Number of goroutines
# TYPE stepperd_goroutines gauge
stepperd_goroutines ` + formatInt(m.GoroutineCount) + `

# HELP stepperd_api_requests_total Total number of API requests
# TYPE stepperd_api_requests_total counter
stepperd_api_requests_total ` + formatInt64(m.TotalRequests) + `

# HELP stepperd_api_errors_total Total number of API errors
# TYPE stepperd_api_errors_total counter
stepperd_api_errors_total ` + formatInt64(m.TotalErrors) + `

# HELP stepperd_api_response_time_ms Average API response time in milliseconds
# TYPE stepperd_api_response_time_ms gauge
stepperd_api_response_time_ms ` + formatFloat64(m.AvgResponseTime) + `
`
}

// Middleware wraps a fiber handler chain, recording request counts, error
// counts, and response time.
func Middleware(m *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		m.IncrementRequests()
		err := c.Next()

		m.RecordResponseTime(time.Since(start))
		if c.Response().StatusCode() >= 400 {
			m.IncrementErrors()
		}

		return err
	}
}

func formatInt64(n int64) string {
	return fmt.Sprintf("%d", n)
}

func formatUint64(n uint64) string {
	return fmt.Sprintf("%d", n)
}

func formatInt(n int) string {
	return fmt.Sprintf("%d", n)
}

func formatFloat64(n float64) string {
	return fmt.Sprintf("%.2f", n)
}
