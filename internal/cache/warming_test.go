package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/coastalguard/coastal-monitor/internal/models"
)

type countingFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	failOn string
}

func (f *countingFetcher) CityWeather(ctx context.Context, name string) (models.CityWeather, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	if name == f.failOn {
		return models.CityWeather{}, errors.New("boom")
	}
	return models.CityWeather{City: name}, nil
}

func TestWarmerFetchesAllCities(t *testing.T) {
	fetcher := &countingFetcher{}
	w := NewWarmer(fetcher, zap.NewNop())

	cities := []string{"Kandla", "Okha", "Surat"}
	if err := w.Warm(context.Background(), cities); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range cities {
		if fetcher.calls[c] != 1 {
			t.Fatalf("expected one fetch for %s, got %d", c, fetcher.calls[c])
		}
	}
}

func TestWarmerAggregatesErrors(t *testing.T) {
	fetcher := &countingFetcher{failOn: "Okha"}
	w := NewWarmer(fetcher, zap.NewNop())

	err := w.Warm(context.Background(), []string{"Kandla", "Okha", "Surat"})
	if err == nil {
		t.Fatal("expected error when a city fails")
	}
	// Other cities are still warmed.
	if fetcher.calls["Kandla"] != 1 || fetcher.calls["Surat"] != 1 {
		t.Fatalf("expected other cities warmed, got %+v", fetcher.calls)
	}
}
