package dashboard

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/evcraddock/trackmate/internal/visit"
)

// NormalizeCity is the comparison key for city filters.
func NormalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// DisplayCity normalizes city and upper-cases its first letter: "pune " -> "Pune".
func DisplayCity(city string) string {
	n := NormalizeCity(city)
	if n == "" {
		return ""
	}
	_, size := utf8.DecodeRuneInString(n)
	return cases.Upper(language.Und).String(n[:size]) + n[size:]
}

// CityOptions returns the distinct non-empty cities of visits for a filter
// picker, in display form and sorted.
func CityOptions(visits []visit.Visit) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, v := range visits {
		c := DisplayCity(v.City)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
