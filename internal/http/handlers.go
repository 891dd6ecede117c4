package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/coastalguard/coastal-monitor/internal/ai"
	"github.com/coastalguard/coastal-monitor/internal/lifecycle"
	"github.com/coastalguard/coastal-monitor/internal/notify"
	"github.com/coastalguard/coastal-monitor/internal/registry"
	"github.com/coastalguard/coastal-monitor/internal/service"
	"github.com/coastalguard/coastal-monitor/internal/traffic"
	"github.com/coastalguard/coastal-monitor/internal/validation"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	DegradedWindow       time.Duration
	DegradedFallbackPct  int
	StartTime            time.Time
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather          *service.CoastalService
	analyzer         *ai.Analyzer
	dispatcher       *notify.Dispatcher
	healthConfig     *HealthConfig
	logger           *zap.Logger
	cityMinLength    int
	cityMaxLength    int
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	weather *service.CoastalService,
	analyzer *ai.Analyzer,
	dispatcher *notify.Dispatcher,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	cityMinLength, cityMaxLength int,
) *Handler {
	return &Handler{
		weather:       weather,
		analyzer:      analyzer,
		dispatcher:    dispatcher,
		healthConfig:  healthConfig,
		logger:        logger,
		cityMinLength: cityMinLength,
		cityMaxLength: cityMaxLength,
	}
}

// GetCity handles GET /api/city/{name}.
func (h *Handler) GetCity(w http.ResponseWriter, r *http.Request) {
	name, err := validation.ValidateCityName(mux.Vars(r)["name"], h.cityMinLength, h.cityMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", err.Error())
		return
	}

	record, err := h.weather.CityWeather(r.Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCity) {
			writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND", "city is not monitored: "+name)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// GetDashboard handles GET /api/dashboard. Returns records for all monitored cities.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	records, err := h.weather.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities":    records,
		"count":     len(records),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetAlerts handles GET /api/alerts. Returns cities at yellow or red.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.weather.ActiveAlerts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":    alerts,
		"count":     len(alerts),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetCities handles GET /api/cities. Returns the monitored city registry.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities": registry.All(),
	})
}

// GetAIAnalysis handles GET /api/ai-analysis. Never fails: the analyzer falls
// back to a static analysis when the LLM is unavailable.
func (h *Handler) GetAIAnalysis(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.weather.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	analysis := h.analyzer.Analyze(r.Context(), snapshot)
	writeJSON(w, http.StatusOK, analysis)
}

// PostTestCommunications handles POST /api/test-communications. Exposed only
// in testing mode; fans a test alert out to the stub notifiers.
func (h *Handler) PostTestCommunications(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Subject == "" {
		body.Subject = "CoastalGuard test alert"
	}
	if body.Body == "" {
		body.Body = "This is a test of the CoastalGuard notification channels."
	}

	results := h.dispatcher.TestAll(r.Context(), body.Subject, body.Body)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"results": results,
	})
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.status == "degraded" {
		checks["weatherApi"] = "unhealthy"
	} else {
		checks["weatherApi"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}

	mode := "live"
	if h.weather.SimulatedMode() {
		mode = "simulated"
	}

	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "coastal-monitor",
		"version":   "dev",
		"mode":      mode,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > overloaded (rate-limit denials) > degraded (fallback rate) > healthy.
// Simulated mode is healthy by definition; only unplanned fallbacks degrade.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if h.healthConfig.RateLimitRPS > 0 && h.healthConfig.OverloadWindow > 0 {
		threshold := float64(h.healthConfig.RateLimitRPS) * h.healthConfig.OverloadWindow.Seconds() * float64(h.healthConfig.OverloadThresholdPct) / 100
		if float64(traffic.RequestCount(h.healthConfig.OverloadWindow)) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
		}
	}
	if !h.weather.SimulatedMode() && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedFallbackPct > 0 {
		fallbacks, total := traffic.FallbackRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(fallbacks) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedFallbackPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "fallback_rate_breach"}
			}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeServiceError writes a 503 for unexpected service failures. With the
// fallback chain in place this should only fire on context cancellation.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Unable to serve weather data")
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("service error", zap.Error(err))
	}
}
