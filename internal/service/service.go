package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/coastalguard/coastal-monitor/internal/cache"
	"github.com/coastalguard/coastal-monitor/internal/client"
	"github.com/coastalguard/coastal-monitor/internal/mock"
	"github.com/coastalguard/coastal-monitor/internal/models"
	"github.com/coastalguard/coastal-monitor/internal/observability"
	"github.com/coastalguard/coastal-monitor/internal/registry"
	"github.com/coastalguard/coastal-monitor/internal/threat"
	"github.com/coastalguard/coastal-monitor/internal/traffic"
)

// ErrUnknownCity is returned when the requested city is not in the registry.
var ErrUnknownCity = errors.New("unknown city")

// CoastalService orchestrates weather retrieval using cache-aside with a
// fallback chain: fresh cache, upstream API, stale cache, simulated data.
// Weather reads therefore never fail except for unknown cities.
type CoastalService struct {
	provider client.WeatherClient // nil in simulated mode
	cache    cache.Cache
	mock     *mock.Generator
	ttl      time.Duration
	staleTTL time.Duration
}

// NewCoastalService creates a CoastalService. provider may be nil, which puts
// the service in simulated mode (no API key configured). staleTTL is the
// maximum age for stale-cache fallback; 0 disables it.
func NewCoastalService(provider client.WeatherClient, c cache.Cache, gen *mock.Generator, ttl, staleTTL time.Duration) *CoastalService {
	return &CoastalService{
		provider: provider,
		cache:    c,
		mock:     gen,
		ttl:      ttl,
		staleTTL: staleTTL,
	}
}

// SimulatedMode reports whether the service runs without an upstream provider.
func (s *CoastalService) SimulatedMode() bool {
	return s.provider == nil
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// CityWeather returns the current record for the named city. Cache hit wins;
// on miss the upstream is fetched and cached; on upstream failure stale cache
// is tried, then simulated data. Only unknown cities produce an error.
func (s *CoastalService) CityWeather(ctx context.Context, name string) (models.CityWeather, error) {
	city, ok := registry.Lookup(name)
	if !ok {
		return models.CityWeather{}, ErrUnknownCity
	}
	key := registry.Normalize(city.Name)
	logger := loggerFromContext(ctx)

	cached, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(client.ErrorCategoryCache)).Inc()
		if logger != nil {
			logger.Warn("cache get failed", zap.String("city", key), zap.Error(err))
		}
	} else if hit {
		observability.CacheHitsTotal.WithLabelValues("weather").Inc()
		if logger != nil {
			logger.Debug("cache hit", zap.String("city", key))
		}
		return cached, nil
	}

	if s.provider == nil {
		record := s.buildRecord(city, s.mock.Observation(), models.SourceSimulated)
		s.store(ctx, key, record, logger)
		traffic.RecordLive()
		return record, nil
	}

	obs, upstreamErr := s.provider.CurrentObservation(ctx, city)
	if upstreamErr != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(client.CategorizeError(upstreamErr))).Inc()
		if logger != nil {
			logger.Warn("upstream fetch failed", zap.String("city", key), zap.Error(upstreamErr))
		}
		return s.fallback(ctx, city, key, logger), nil
	}

	record := s.buildRecord(city, obs, models.SourceOpenWeatherMap)
	s.store(ctx, key, record, logger)
	traffic.RecordLive()
	if logger != nil {
		logger.Debug("weather served", zap.String("city", key), zap.String("source", record.Source))
	}
	return record, nil
}

// fallback serves stale cache when available, otherwise simulated data.
// The simulated record is not cached: the next request should retry upstream.
func (s *CoastalService) fallback(ctx context.Context, city registry.City, key string, logger *zap.Logger) models.CityWeather {
	traffic.RecordFallback()

	if s.staleTTL > 0 {
		stale, ok, staleErr := s.cache.GetStale(ctx, key, s.staleTTL)
		if staleErr == nil && ok {
			staleAge := time.Since(stale.Timestamp)
			observability.StaleCacheServesTotal.WithLabelValues(key).Inc()
			stale.Stale = true
			if logger != nil {
				logger.Info("serving stale cache", zap.String("city", key), zap.Duration("age", staleAge))
			}
			return stale
		}
	}

	observability.SimulatedServesTotal.WithLabelValues(key).Inc()
	if logger != nil {
		logger.Info("serving simulated data", zap.String("city", key))
	}
	return s.buildRecord(city, s.mock.Observation(), models.SourceSimulated)
}

func (s *CoastalService) store(ctx context.Context, key string, record models.CityWeather, logger *zap.Logger) {
	if err := s.cache.Set(ctx, key, record, s.ttl); err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(client.ErrorCategoryCache)).Inc()
		if logger != nil {
			logger.Warn("cache set failed", zap.String("city", key), zap.Error(err))
		}
	}
}

// buildRecord derives the dashboard record from a raw observation: unit
// conversions, compass direction, UV/air-quality/sea-state estimates, and the
// threat classification.
func (s *CoastalService) buildRecord(city registry.City, obs client.Observation, source string) models.CityWeather {
	windKmh := round1(threat.KmhFromMS(obs.WindSpeedMS))
	seaState, waveHeight := threat.EstimateSeaState(windKmh)
	level := threat.Classify(obs.TempC, windKmh, obs.PressureHPa)
	observability.SetThreatLevel(registry.Normalize(city.Name), threatValue(level))

	timestamp := obs.ObservedAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return models.CityWeather{
		City:          city.Name,
		Latitude:      city.Latitude,
		Longitude:     city.Longitude,
		Temperature:   round1(obs.TempC),
		Humidity:      obs.Humidity,
		Pressure:      round1(obs.PressureHPa),
		WindSpeed:     windKmh,
		WindDirection: threat.Compass(obs.WindDeg),
		Conditions:    obs.Conditions,
		Visibility:    round1(threat.KmFromM(obs.VisibilityM)),
		UVIndex:       threat.EstimateUVIndex(obs.TempC, obs.CloudsPct),
		AirQuality:    threat.EstimateAirQuality(windKmh, obs.Humidity),
		SeaState:      seaState,
		WaveHeight:    waveHeight,
		ThreatLevel:   level,
		Source:        source,
		Timestamp:     timestamp,
	}
}

// Dashboard returns records for every monitored city in registry order.
func (s *CoastalService) Dashboard(ctx context.Context) ([]models.CityWeather, error) {
	cities := registry.All()
	out := make([]models.CityWeather, 0, len(cities))
	for _, c := range cities {
		record, err := s.CityWeather(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// ActiveAlerts returns the subset of cities currently at yellow or red.
func (s *CoastalService) ActiveAlerts(ctx context.Context) ([]models.CityWeather, error) {
	dashboard, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]models.CityWeather, 0)
	for _, record := range dashboard {
		if record.ThreatLevel != models.ThreatGreen {
			alerts = append(alerts, record)
		}
	}
	return alerts, nil
}

func threatValue(level models.ThreatLevel) float64 {
	switch level {
	case models.ThreatYellow:
		return 1
	case models.ThreatRed:
		return 2
	default:
		return 0
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
