package threat

import (
	"math"

	"github.com/coastalguard/coastal-monitor/internal/models"
)

// Classification thresholds. Red trips on any single breach; yellow on the
// lower set; otherwise green.
const (
	RedTempC       = 40.0
	RedWindKmh     = 50.0
	RedPressureHPa = 990.0

	YellowTempC       = 35.0
	YellowWindKmh     = 30.0
	YellowPressureHPa = 1000.0
)

// Classify derives the threat level from temperature (Celsius), wind speed
// (km/h) and pressure (hPa). Pure function of its inputs.
func Classify(tempC, windKmh, pressureHPa float64) models.ThreatLevel {
	if tempC > RedTempC || windKmh > RedWindKmh || pressureHPa < RedPressureHPa {
		return models.ThreatRed
	}
	if tempC > YellowTempC || windKmh > YellowWindKmh || pressureHPa < YellowPressureHPa {
		return models.ThreatYellow
	}
	return models.ThreatGreen
}

// KmhFromMS converts metres per second to kilometres per hour.
func KmhFromMS(ms float64) float64 {
	return ms * 3.6
}

// KmFromM converts metres to kilometres.
func KmFromM(m float64) float64 {
	return m / 1000
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass maps wind degrees to a 16-point compass direction.
// Degrees outside [0, 360) are normalized first.
func Compass(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % 16
	return compassPoints[idx]
}

// EstimateUVIndex approximates the UV index from temperature and cloud cover.
// The base index scales with warmth above 20C and is attenuated by clouds
// (full overcast removes 60% of it), clamped to [0, 11].
func EstimateUVIndex(tempC float64, cloudsPct int) float64 {
	if cloudsPct < 0 {
		cloudsPct = 0
	}
	if cloudsPct > 100 {
		cloudsPct = 100
	}
	base := (tempC - 20) * 0.5
	if base < 0 {
		base = 0
	}
	uv := base * (1 - 0.6*float64(cloudsPct)/100)
	if uv > 11 {
		uv = 11
	}
	return math.Round(uv*10) / 10
}

// Air quality estimate labels.
const (
	AirGood     = "good"
	AirModerate = "moderate"
	AirPoor     = "poor"
)

// EstimateAirQuality approximates air quality from dispersion conditions:
// stagnant humid air traps pollutants, light wind disperses them slowly.
func EstimateAirQuality(windKmh float64, humidity int) string {
	if windKmh < 8 && humidity > 70 {
		return AirPoor
	}
	if windKmh < 15 {
		return AirModerate
	}
	return AirGood
}

// Sea state labels derived from wind speed.
const (
	SeaCalm      = "calm"
	SeaModerate  = "moderate"
	SeaRough     = "rough"
	SeaVeryRough = "very rough"
)

// EstimateSeaState derives a sea-state label and an estimated significant
// wave height (metres, one decimal) from wind speed in km/h. The height
// estimate is wind-proportional and clamped to [0.2, 6.0].
func EstimateSeaState(windKmh float64) (string, float64) {
	h := windKmh * 0.06
	if h < 0.2 {
		h = 0.2
	}
	if h > 6.0 {
		h = 6.0
	}
	h = math.Round(h*10) / 10

	switch {
	case windKmh < 20:
		return SeaCalm, h
	case windKmh < 40:
		return SeaModerate, h
	case windKmh < 60:
		return SeaRough, h
	default:
		return SeaVeryRough, h
	}
}
