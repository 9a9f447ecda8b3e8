package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evcraddock/trackmate/internal/visit"
)

func TestNormalizeCity(t *testing.T) {
	assert.Equal(t, "pune", NormalizeCity("  Pune "))
	assert.Equal(t, "new delhi", NormalizeCity("NEW DELHI"))
	assert.Equal(t, "", NormalizeCity("   "))
}

func TestDisplayCity(t *testing.T) {
	tests := map[string]string{
		"pune ":     "Pune",
		"NEW DELHI": "New delhi",
		"":          "",
		"ürümqi":    "Ürümqi",
	}
	for in, want := range tests {
		assert.Equal(t, want, DisplayCity(in), "DisplayCity(%q)", in)
	}
}

func TestCityOptions(t *testing.T) {
	visits := []visit.Visit{
		{City: "pune "}, {City: "Mumbai"}, {City: "PUNE"}, {City: ""}, {City: "  "}, {City: "aurangabad"},
	}

	assert.Equal(t, []string{"Aurangabad", "Mumbai", "Pune"}, CityOptions(visits))
	assert.Equal(t, []string{}, CityOptions(nil))
}
