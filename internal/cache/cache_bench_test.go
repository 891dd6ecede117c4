package cache

import (
	"context"
	"testing"
	"time"

	"github.com/coastalguard/coastal-monitor/internal/models"
)

func benchRecord(city string) models.CityWeather {
	return models.CityWeather{
		City:        city,
		Temperature: 31.5,
		Humidity:    72,
		Pressure:    1006,
		WindSpeed:   18.4,
		Conditions:  "clear sky",
		ThreatLevel: models.ThreatGreen,
		Timestamp:   time.Now(),
	}
}

func BenchmarkInMemoryCache_Get_Hit(b *testing.B) {
	c := NewInMemoryCache()
	ctx := context.Background()
	_ = c.Set(ctx, "kandla", benchRecord("Kandla"), 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(ctx, "kandla")
	}
}

func BenchmarkInMemoryCache_Get_Miss(b *testing.B) {
	c := NewInMemoryCache()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(ctx, "nonexistent")
	}
}

func BenchmarkInMemoryCache_Set(b *testing.B) {
	c := NewInMemoryCache()
	ctx := context.Background()
	record := benchRecord("Kandla")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, "kandla", record, 5*time.Minute)
	}
}

func BenchmarkInMemoryCache_Concurrent(b *testing.B) {
	c := NewInMemoryCache()
	ctx := context.Background()
	_ = c.Set(ctx, "kandla", benchRecord("Kandla"), 5*time.Minute)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, _ = c.Get(ctx, "kandla")
		}
	})
}
