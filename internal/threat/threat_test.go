package threat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coastalguard/coastal-monitor/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		tempC       float64
		windKmh     float64
		pressureHPa float64
		want        models.ThreatLevel
	}{
		{"calm conditions", 30, 10, 1010, models.ThreatGreen},
		{"all at yellow boundary stays green", 35, 30, 1000, models.ThreatGreen},
		{"heat above yellow threshold", 35.1, 10, 1010, models.ThreatYellow},
		{"wind above yellow threshold", 30, 30.1, 1010, models.ThreatYellow},
		{"pressure below yellow threshold", 30, 10, 999.9, models.ThreatYellow},
		{"all at red boundary stays yellow", 40, 50, 990, models.ThreatYellow},
		{"extreme heat", 40.1, 10, 1010, models.ThreatRed},
		{"gale wind", 30, 50.1, 1010, models.ThreatRed},
		{"deep low pressure", 30, 10, 989.9, models.ThreatRed},
		{"single red factor dominates", 41, 5, 1012, models.ThreatRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.tempC, tt.windKmh, tt.pressureHPa)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, models.ThreatYellow, Classify(36, 10, 1010))
	}
}

func TestConversionsExact(t *testing.T) {
	assert.Equal(t, 36.0, KmhFromMS(10))
	assert.Equal(t, 18.0, KmhFromMS(5))
	assert.Equal(t, 0.0, KmhFromMS(0))
	assert.Equal(t, 10.0, KmFromM(10000))
	assert.Equal(t, 2.5, KmFromM(2500))
}

func TestCompass(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{359, "N"},
		{-90, "W"},
		{450, "E"},
		{11.24, "N"},
		{11.26, "NNE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compass(tt.deg), "deg %v", tt.deg)
	}
}

func TestEstimateUVIndex(t *testing.T) {
	// Cold and overcast bottoms out at zero.
	assert.Equal(t, 0.0, EstimateUVIndex(15, 100))
	// Clear sky scales with warmth above 20C.
	assert.Equal(t, 5.0, EstimateUVIndex(30, 0))
	// Full overcast removes 60%.
	assert.Equal(t, 2.0, EstimateUVIndex(30, 100))
	// Clamped to 11 in extreme heat.
	assert.Equal(t, 11.0, EstimateUVIndex(60, 0))
	// Out-of-range cloud values are clamped.
	assert.Equal(t, 5.0, EstimateUVIndex(30, -10))
	assert.Equal(t, 2.0, EstimateUVIndex(30, 150))
}

func TestEstimateAirQuality(t *testing.T) {
	assert.Equal(t, AirPoor, EstimateAirQuality(5, 80))
	assert.Equal(t, AirModerate, EstimateAirQuality(5, 50))
	assert.Equal(t, AirModerate, EstimateAirQuality(10, 80))
	assert.Equal(t, AirGood, EstimateAirQuality(20, 80))
	assert.Equal(t, AirGood, EstimateAirQuality(15, 50))
}

func TestEstimateSeaState(t *testing.T) {
	tests := []struct {
		windKmh    float64
		wantState  string
		wantHeight float64
	}{
		{0, SeaCalm, 0.2},
		{10, SeaCalm, 0.6},
		{19.9, SeaCalm, 1.2},
		{20, SeaModerate, 1.2},
		{35, SeaModerate, 2.1},
		{40, SeaRough, 2.4},
		{55, SeaRough, 3.3},
		{60, SeaVeryRough, 3.6},
		{120, SeaVeryRough, 6.0},
	}
	for _, tt := range tests {
		state, height := EstimateSeaState(tt.windKmh)
		assert.Equal(t, tt.wantState, state, "wind %v", tt.windKmh)
		assert.InDelta(t, tt.wantHeight, height, 0.001, "wind %v", tt.windKmh)
	}
}
