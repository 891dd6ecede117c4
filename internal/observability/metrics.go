package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Upstream API latency per call. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Retry attempts for weather API. Watch for: high retries = unstable upstream.
	WeatherAPIRetriesTotal prometheus.Counter

	// Upstream errors by category (timeout, rate_limited, upstream_5xx, ...).
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// Circuit breaker state transitions for the upstream client.
	BreakerTransitionsTotal *prometheus.CounterVec

	// Cache hits. Hit rate = hits / (hits + weatherApiCallsTotal successes).
	CacheHitsTotal *prometheus.CounterVec

	// Requests served from stale cache after an upstream failure.
	StaleCacheServesTotal *prometheus.CounterVec

	// Requests served with simulated data (no key, or upstream and stale cache failed).
	SimulatedServesTotal *prometheus.CounterVec

	// Per-city threat level: 0 green, 1 yellow, 2 red. Drives the alerting view.
	ThreatLevelGauge *prometheus.GaugeVec

	// AI analysis requests by source (llm, static).
	AIAnalysisTotal *prometheus.CounterVec

	// AI upstream latency.
	AIRequestDuration prometheus.Histogram

	// Simulated notification sends by channel (email, sms).
	NotificationsSimulatedTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Cache warming runs, failures, and duration.
	CacheWarmingTotal           prometheus.Counter
	CacheWarmingErrorsTotal     prometheus.Counter
	CacheWarmingDurationSeconds prometheus.Histogram
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherApiRetriesTotal",
			Help: "Total number of retry attempts for weather API calls",
		},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Upstream weather API errors by category",
		},
		[]string{"category"},
	)
	BreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits",
		},
		[]string{"cacheType"},
	)
	StaleCacheServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleCacheServesTotal",
			Help: "Requests served from stale cache after upstream failure",
		},
		[]string{"city"},
	)
	SimulatedServesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulatedServesTotal",
			Help: "Requests served with simulated weather data",
		},
		[]string{"city"},
	)
	ThreatLevelGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cityThreatLevel",
			Help: "Current threat level per city (0 green, 1 yellow, 2 red)",
		},
		[]string{"city"},
	)
	AIAnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiAnalysisTotal",
			Help: "AI threat analyses by source (llm, static)",
		},
		[]string{"source"},
	)
	AIRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aiRequestDurationSeconds",
			Help:    "LLM API latency in seconds (per request)",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	NotificationsSimulatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notificationsSimulatedTotal",
			Help: "Simulated notification sends by channel",
		},
		[]string{"channel"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Cache warming runs",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Cache warming runs with at least one failed city",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Cache warming duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIRetriesTotal, WeatherAPIErrorsTotal,
		BreakerTransitionsTotal,
		CacheHitsTotal, StaleCacheServesTotal, SimulatedServesTotal,
		ThreatLevelGauge,
		AIAnalysisTotal, AIRequestDuration,
		NotificationsSimulatedTotal,
		RateLimitDeniedTotal,
		CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
	)
}

// RecordBreakerTransition records a circuit breaker state change.
func RecordBreakerTransition(component, from, to string) {
	BreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// SetThreatLevel records the numeric threat level for a city.
func SetThreatLevel(city string, level float64) {
	ThreatLevelGauge.WithLabelValues(city).Set(level)
}

// MetricsHandler returns the /metrics HTTP handler for the service registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
