package dashboard

import (
	"strconv"

	"github.com/evcraddock/trackmate/internal/visit"
)

// Average returns the mean of field across visits with two decimals.
// Missing or non-numeric values count as 0; no visits gives "0.00".
// field may be a canonical name, a source key, or an extra key.
func Average(visits []visit.Visit, field string) string {
	if len(visits) == 0 {
		return "0.00"
	}
	var total float64
	for i := range visits {
		val, _ := visits[i].Field(field)
		total += visit.Amount{Raw: val}.Float()
	}
	mean := total / float64(len(visits))
	if mean == 0 {
		mean = 0 // drop negative zero
	}
	return strconv.FormatFloat(mean, 'f', 2, 64)
}
