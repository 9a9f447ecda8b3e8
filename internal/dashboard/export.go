package dashboard

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/trackmate/internal/visit"
)

// ExportFilename is the download name for exported visits.
const ExportFilename = "sales_visits.csv"

// CSVHeader returns the header row WriteCSV emits for visits.
func CSVHeader(visits []visit.Visit) []string {
	header, _ := csvColumns(visits)
	return header
}

// csvColumns returns the header row and the Extra key behind each extra
// column. An extra key that clashes with another column, ignoring case, is
// written as "extra.<key>".
func csvColumns(visits []visit.Visit) ([]string, []string) {
	header := append([]string{"id", "category"}, visit.Fields...)
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[strings.ToLower(h)] = true
	}

	keys := visit.ExtraKeys(visits)
	for _, k := range keys {
		name := k
		for taken[strings.ToLower(name)] {
			name = "extra." + name
		}
		taken[strings.ToLower(name)] = true
		header = append(header, name)
	}
	return header, keys
}

// WriteCSV writes visits as CSV with one header row. Null amounts are empty cells.
func WriteCSV(w io.Writer, visits []visit.Visit) error {
	cw := csv.NewWriter(w)
	header, extras := csvColumns(visits)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for i := range visits {
		v := &visits[i]
		row := make([]string, 0, len(header))
		row = append(row, v.ID, string(v.Category))
		for _, f := range visit.Fields {
			val, _ := v.Field(f)
			row = append(row, cell(val))
		}
		for _, k := range extras {
			row = append(row, cell(v.Extra[k]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func cell(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case map[string]any, []any:
		// Nested documents are kept readable as JSON.
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
