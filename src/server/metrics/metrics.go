// Package metrics provides Prometheus-compatible metrics for monitoring
package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripplanner_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripplanner_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)

	// Database metrics
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_db_connections_in_use",
			Help: "Number of database connections in use",
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// Scheduler metrics
	SchedulerTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_scheduler_tasks_total",
			Help: "Total number of scheduled tasks executed",
		},
		[]string{"task", "status"},
	)

	SchedulerTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripplanner_scheduler_task_duration_seconds",
			Help:    "Scheduled task duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
		[]string{"task"},
	)

	// Authentication metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"method", "status"},
	)

	// Business metrics
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_users_total",
			Help: "Total number of registered users",
		},
	)

	TripsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tripplanner_trips_total",
			Help: "Number of trips by status",
		},
		[]string{"status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripplanner_events_published_total",
			Help: "Total realtime events published",
		},
		[]string{"event"},
	)

	WebsocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_websocket_sessions",
			Help: "Number of connected websocket sessions",
		},
	)

	// Application info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tripplanner_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "build_date", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	// System metrics
	SystemMemoryUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_system_memory_used_bytes",
			Help: "System memory used in bytes",
		},
	)

	SystemGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripplanner_system_goroutines",
			Help: "Number of goroutines",
		},
	)
)

var (
	initOnce  sync.Once
	startTime time.Time
)

// Init records application info and starts the background updater
func Init(version, commit, buildDate string) {
	initOnce.Do(func() {
		startTime = time.Now()
		AppInfo.WithLabelValues(version, commit, buildDate, runtime.Version()).Set(1)

		go updateMetrics()
	})
}

// updateMetrics refreshes uptime and runtime gauges every 15 seconds
func updateMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		AppUptime.Set(time.Since(startTime).Seconds())

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		SystemMemoryUsed.Set(float64(m.Alloc))
		SystemGoroutines.Set(float64(runtime.NumGoroutine()))
	}
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cache string) {
	CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cache string) {
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordSchedulerTask records a scheduled task execution
func RecordSchedulerTask(task, status string, duration time.Duration) {
	SchedulerTasksTotal.WithLabelValues(task, status).Inc()
	SchedulerTaskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordAuthAttempt records an authentication attempt
func RecordAuthAttempt(method, status string) {
	AuthAttempts.WithLabelValues(method, status).Inc()
}

// RecordEvent records a published realtime event
func RecordEvent(event string) {
	EventsPublished.WithLabelValues(event).Inc()
}

// UpdateDBStats refreshes the connection pool gauges
func UpdateDBStats(open, inUse int) {
	DBConnectionsOpen.Set(float64(open))
	DBConnectionsInUse.Set(float64(inUse))
}
