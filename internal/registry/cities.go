package registry

import "strings"

// City is a monitored coastal city with its coordinates.
type City struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// cities is the fixed set of monitored Gujarat coastal cities.
// Order here is the order returned by All.
var cities = []City{
	{Name: "Kandla", Latitude: 23.0333, Longitude: 70.2167},
	{Name: "Mundra", Latitude: 22.8387, Longitude: 69.7218},
	{Name: "Okha", Latitude: 22.4674, Longitude: 69.0704},
	{Name: "Dwarka", Latitude: 22.2394, Longitude: 68.9678},
	{Name: "Porbandar", Latitude: 21.6417, Longitude: 69.6293},
	{Name: "Veraval", Latitude: 20.9077, Longitude: 70.3665},
	{Name: "Jamnagar", Latitude: 22.4707, Longitude: 70.0577},
	{Name: "Bhavnagar", Latitude: 21.7645, Longitude: 72.1519},
	{Name: "Surat", Latitude: 21.1702, Longitude: 72.8311},
	{Name: "Bharuch", Latitude: 21.7051, Longitude: 72.9959},
}

var byKey = func() map[string]City {
	m := make(map[string]City, len(cities))
	for _, c := range cities {
		m[Normalize(c.Name)] = c
	}
	return m
}()

// Normalize returns the canonical lookup key for a city name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup returns the city for the given name, matching case- and
// whitespace-insensitively.
func Lookup(name string) (City, bool) {
	c, ok := byKey[Normalize(name)]
	return c, ok
}

// All returns the monitored cities in registry order.
func All() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// Names returns the display names of all monitored cities in registry order.
func Names() []string {
	out := make([]string, len(cities))
	for i, c := range cities {
		out[i] = c.Name
	}
	return out
}
