package models

import "time"

// ThreatLevel classifies coastal conditions for a city.
type ThreatLevel string

const (
	ThreatGreen  ThreatLevel = "green"
	ThreatYellow ThreatLevel = "yellow"
	ThreatRed    ThreatLevel = "red"
)

// Valid reports whether the level is one of green, yellow, red.
func (t ThreatLevel) Valid() bool {
	switch t {
	case ThreatGreen, ThreatYellow, ThreatRed:
		return true
	}
	return false
}

// Data sources for a CityWeather record.
const (
	SourceOpenWeatherMap = "openweathermap"
	SourceSimulated      = "simulated"
)

// CityWeather is the per-city weather record served by the dashboard.
// Wind speed is km/h, visibility km, pressure hPa, temperature Celsius.
type CityWeather struct {
	City          string      `json:"city"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	Temperature   float64     `json:"temperature"`
	Humidity      int         `json:"humidity"`
	Pressure      float64     `json:"pressure"`
	WindSpeed     float64     `json:"windSpeed"`
	WindDirection string      `json:"windDirection"`
	Conditions    string      `json:"conditions"`
	Visibility    float64     `json:"visibility"`
	UVIndex       float64     `json:"uvIndex"`
	AirQuality    string      `json:"airQuality"`
	SeaState      string      `json:"seaState"`
	WaveHeight    float64     `json:"waveHeight"`
	ThreatLevel   ThreatLevel `json:"threatLevel"`
	Source        string      `json:"source"`
	Timestamp     time.Time   `json:"timestamp"`
	Stale         bool        `json:"stale,omitempty"` // Indicates data served from stale cache
}

// ThreatAnalysis is the result of the AI threat-analysis endpoint.
// Source is "llm" when a model produced the text, "static" for the local fallback.
type ThreatAnalysis struct {
	Summary     string    `json:"summary"`
	Advisories  []string  `json:"advisories"`
	Source      string    `json:"source"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}
