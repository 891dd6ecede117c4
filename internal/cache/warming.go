package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coastalguard/coastal-monitor/internal/models"
	"github.com/coastalguard/coastal-monitor/internal/observability"
)

// CityFetcher is implemented by the service layer to fetch weather for a
// city. Used by Warmer to avoid a circular dependency on the service package.
type CityFetcher interface {
	CityWeather(ctx context.Context, name string) (models.CityWeather, error)
}

// Warmer prefetches weather for the monitored cities so dashboard requests
// hit a warm cache. The gocron scheduler in main drives periodic refreshes.
type Warmer struct {
	fetcher CityFetcher
	logger  *zap.Logger
}

// NewWarmer creates a Warmer that uses the given fetcher and logger.
func NewWarmer(fetcher CityFetcher, logger *zap.Logger) *Warmer {
	return &Warmer{fetcher: fetcher, logger: logger}
}

// Warm fetches weather for each city concurrently, populating the cache via
// the fetcher. Returns an aggregated error if any city failed.
func (w *Warmer) Warm(ctx context.Context, cities []string) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("cities", len(cities)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(cities))
	for _, name := range cities {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.fetcher.CityWeather(ctx, name)
			if err != nil {
				errCh <- fmt.Errorf("warm %s: %w", name, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("cities", len(cities)), zap.Int("errors", len(errs)), zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}
