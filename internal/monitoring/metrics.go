package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsActive    prometheus.Gauge
	SessionsSpawned   *prometheus.CounterVec
	SpawnFailures     *prometheus.CounterVec
	SessionsDestroyed prometheus.Counter
	Resizes           *prometheus.CounterVec

	// Memory service metrics
	MemoryRequests *prometheus.CounterVec
	MemoryDuration *prometheus.HistogramVec

	// Control API metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	startTime time.Time
	snapshot  Snapshot
	mu        sync.RWMutex
}

// Snapshot holds current values for the JSON stats endpoint.
type Snapshot struct {
	ActiveSessions int64   `json:"active_sessions"`
	SpawnedTotal   int64   `json:"spawned_total"`
	FailedTotal    int64   `json:"failed_total"`
	DestroyedTotal int64   `json:"destroyed_total"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	ResizesApplied int64   `json:"resizes_applied"`
	ResizesSkipped int64   `json:"resizes_skipped"`
	MemoryRequests int64   `json:"memory_requests"`
	MemoryFailures int64   `json:"memory_failures"`
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		startTime: time.Now(),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "persona_sessions_active",
			Help: "Number of sessions with a live agent process",
		}),
		SessionsSpawned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persona_sessions_spawned_total",
				Help: "Total number of agent processes spawned",
			},
			[]string{"mode"},
		),
		SpawnFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persona_spawn_failures_total",
				Help: "Total number of failed spawns by stage",
			},
			[]string{"stage"},
		),
		SessionsDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Name: "persona_sessions_destroyed_total",
			Help: "Total number of destroyed sessions",
		}),
		Resizes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persona_resize_total",
				Help: "Pty resize requests by result",
			},
			[]string{"result"},
		),

		MemoryRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persona_memory_requests_total",
				Help: "Requests to the memory service",
			},
			[]string{"endpoint", "status"},
		),
		MemoryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "persona_memory_request_duration_seconds",
				Help:    "Memory service request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persona_http_requests_total",
				Help: "Control API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "persona_http_request_duration_seconds",
				Help:    "Control API request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordSpawn counts a successful spawn.
func (m *Metrics) RecordSpawn(mode string) {
	if m == nil {
		return
	}
	m.SessionsSpawned.WithLabelValues(mode).Inc()
	m.mu.Lock()
	m.snapshot.SpawnedTotal++
	m.mu.Unlock()
}

// RecordSpawnFailure counts a failed spawn.
func (m *Metrics) RecordSpawnFailure(stage string) {
	if m == nil {
		return
	}
	if stage == "" {
		stage = "unknown"
	}
	m.SpawnFailures.WithLabelValues(stage).Inc()
	m.mu.Lock()
	m.snapshot.FailedTotal++
	m.mu.Unlock()
}

// RecordDestroy counts destroyed sessions.
func (m *Metrics) RecordDestroy(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsDestroyed.Add(float64(n))
	m.mu.Lock()
	m.snapshot.DestroyedTotal += int64(n)
	m.mu.Unlock()
}

// SetSessionsActive sets the live session gauge.
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// RecordResize counts a resize as applied or skipped.
func (m *Metrics) RecordResize(applied bool) {
	if m == nil {
		return
	}
	result := "skipped"
	if applied {
		result = "applied"
	}
	m.Resizes.WithLabelValues(result).Inc()
	m.mu.Lock()
	if applied {
		m.snapshot.ResizesApplied++
	} else {
		m.snapshot.ResizesSkipped++
	}
	m.mu.Unlock()
}

// RecordMemoryRequest records one memory service call.
func (m *Metrics) RecordMemoryRequest(endpoint, status string, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.MemoryRequests.WithLabelValues(endpoint, status).Inc()
	m.MemoryDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	m.mu.Lock()
	m.snapshot.MemoryRequests++
	if failed {
		m.snapshot.MemoryFailures++
	}
	m.mu.Unlock()
}

// RecordHTTPRequest records one control API request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// GetSnapshot returns current values.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
