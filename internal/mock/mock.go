// Package mock generates range-bounded simulated observations used when no
// weather API key is configured or the upstream and stale cache both fail.
package mock

import (
	"math/rand"
	"sync"
	"time"

	"github.com/coastalguard/coastal-monitor/internal/client"
)

// Documented generation ranges. Tests assert generated values stay inside.
const (
	TempMinC = 24.0
	TempMaxC = 38.0

	HumidityMin = 55
	HumidityMax = 90

	PressureMinHPa = 996.0
	PressureMaxHPa = 1014.0

	WindMinMS = 1.0
	WindMaxMS = 12.0

	CloudsMaxPct = 90

	VisibilityMinM = 2000.0
	VisibilityMaxM = 10000.0
)

// conditions mimics the handful of states the upstream reports for the
// Gujarat coast.
var conditions = []string{
	"clear sky",
	"few clouds",
	"scattered clouds",
	"haze",
	"light rain",
	"moderate rain",
}

// Generator produces simulated observations. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded from the current time.
func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed returns a Generator with a fixed seed, for tests.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Observation returns a simulated reading with every field inside its
// documented range.
func (g *Generator) Observation() client.Observation {
	g.mu.Lock()
	defer g.mu.Unlock()

	return client.Observation{
		TempC:       g.inRange(TempMinC, TempMaxC),
		Humidity:    HumidityMin + g.rng.Intn(HumidityMax-HumidityMin+1),
		PressureHPa: g.inRange(PressureMinHPa, PressureMaxHPa),
		WindSpeedMS: g.inRange(WindMinMS, WindMaxMS),
		WindDeg:     g.rng.Float64() * 360,
		CloudsPct:   g.rng.Intn(CloudsMaxPct + 1),
		VisibilityM: g.inRange(VisibilityMinM, VisibilityMaxM),
		Conditions:  conditions[g.rng.Intn(len(conditions))],
		ObservedAt:  time.Now(),
	}
}

func (g *Generator) inRange(min, max float64) float64 {
	return min + g.rng.Float64()*(max-min)
}
