package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllReturnsTenCities(t *testing.T) {
	cities := All()
	require.Len(t, cities, 10)
	for _, c := range cities {
		assert.NotEmpty(t, c.Name)
		// All monitored cities lie in Gujarat's coordinate box.
		assert.InDelta(t, 21.9, c.Latitude, 1.2, "latitude of %s", c.Name)
		assert.InDelta(t, 70.9, c.Longitude, 2.1, "longitude of %s", c.Name)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0].Name = "mutated"
	assert.Equal(t, "Kandla", All()[0].Name)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		input string
		want  string
		found bool
	}{
		{"Kandla", "Kandla", true},
		{"kandla", "Kandla", true},
		{"  PORBANDAR  ", "Porbandar", true},
		{"dwarka", "Dwarka", true},
		{"Mumbai", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		c, ok := Lookup(tt.input)
		assert.Equal(t, tt.found, ok, "input %q", tt.input)
		if tt.found {
			assert.Equal(t, tt.want, c.Name)
		}
	}
}

func TestNamesMatchRegistryOrder(t *testing.T) {
	names := Names()
	cities := All()
	require.Equal(t, len(cities), len(names))
	for i, c := range cities {
		assert.Equal(t, c.Name, names[i])
	}
}
