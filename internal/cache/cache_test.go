package cache

import (
	"context"
	"testing"
	"time"

	"github.com/coastalguard/coastal-monitor/internal/models"
)

func record(city string, ts time.Time) models.CityWeather {
	return models.CityWeather{
		City:        city,
		Temperature: 31.5,
		ThreatLevel: models.ThreatGreen,
		Source:      models.SourceOpenWeatherMap,
		Timestamp:   ts,
	}
}

func TestInMemoryCacheGetSet(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "kandla")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss on empty cache")
	}

	want := record("Kandla", time.Now())
	if err := c.Set(ctx, "kandla", want, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "kandla")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.City != "Kandla" || got.Temperature != 31.5 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestInMemoryCacheExpiry(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "okha", record("Okha", time.Now()), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, ok, err := c.Get(ctx, "okha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestInMemoryCacheGetStale(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	// Entry written 10 minutes ago, already past its freshness TTL.
	stale := record("Surat", time.Now().Add(-10*time.Minute))
	if err := c.Set(ctx, "surat", stale, -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "surat"); ok {
		t.Fatal("expected fresh get to miss")
	}

	got, ok, err := c.GetStale(ctx, "surat", 30*time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected stale hit, got ok=%v err=%v", ok, err)
	}
	if got.City != "Surat" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestInMemoryCacheGetStaleHorizon(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	// Record timestamp beyond the stale horizon: not served, and evicted.
	old := record("Veraval", time.Now().Add(-2*time.Hour))
	if err := c.Set(ctx, "veraval", old, -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, ok, _ := c.GetStale(ctx, "veraval", 30*time.Minute); ok {
		t.Fatal("expected stale miss past horizon")
	}
	if _, ok := c.data["veraval"]; ok {
		t.Fatal("expected entry to be evicted past horizon")
	}
}

func TestInMemoryCacheOverwrite(t *testing.T) {
	c := NewInMemoryCache()
	ctx := context.Background()

	first := record("Mundra", time.Now())
	first.Temperature = 28
	second := record("Mundra", time.Now())
	second.Temperature = 33

	_ = c.Set(ctx, "mundra", first, time.Minute)
	_ = c.Set(ctx, "mundra", second, time.Minute)

	got, ok, _ := c.Get(ctx, "mundra")
	if !ok || got.Temperature != 33 {
		t.Fatalf("expected overwrite to win, got %+v ok=%v", got, ok)
	}
}
