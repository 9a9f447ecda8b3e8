// Package dashboard filters, orders, counts and pages visit snapshots.
//
// Every function here is pure: inputs are never modified and results are
// freshly allocated, so calls are safe on shared snapshots from any goroutine.
package dashboard

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/evcraddock/trackmate/internal/visit"
)

// DefaultPageSize is the dashboard table page size.
const DefaultPageSize = 10

// Filter selects visits. Zero values mean no restriction.
type Filter struct {
	Cities []string   // matched after trimming and lower-casing
	From   *time.Time // inclusive, compared by calendar day
	To     *time.Time // inclusive, compared by calendar day
	Months []int      // 1..12
}

// Page is a 1-indexed page request. Size < 1 uses DefaultPageSize.
type Page struct {
	Number int
	Size   int
}

// Averages are the per-visit means over the filtered view.
type Averages struct {
	StudentCount       string `json:"studentCount"`
	TotalContractValue string `json:"totalContractValue"`
	PerStudentRate     string `json:"perStudentRate"`
}

// Result is the outcome of Process.
type Result struct {
	Filtered              []visit.Visit `json:"filtered"`
	TotalVisits           int           `json:"totalVisits"`
	SuccessfulConversions int           `json:"successfulConversions"`
	PendingFollowups      int           `json:"pendingFollowups"`
	TotalPages            int           `json:"totalPages"`
	Page                  int           `json:"page"`
	PageSize              int           `json:"pageSize"`
	Paginated             []visit.Visit `json:"paginated"`
	Averages              Averages      `json:"averages"`
}

// Process applies f to visits, sorts the survivors by visit code descending
// (numeric-aware, case-insensitive), computes the counts and returns page p.
func Process(visits []visit.Visit, f Filter, p Page) Result {
	size := p.Size
	if size < 1 {
		size = DefaultPageSize
	}

	filtered := Apply(visits, f)
	SortByCodeDesc(filtered)

	res := Result{
		Filtered:    filtered,
		TotalVisits: len(filtered),
		TotalPages:  TotalPages(len(filtered), size),
		Page:        p.Number,
		PageSize:    size,
		Paginated:   Paginate(filtered, p.Number, size),
		Averages: Averages{
			StudentCount:       Average(filtered, visit.FieldStudentCount),
			TotalContractValue: Average(filtered, visit.FieldTotalContractValue),
			PerStudentRate:     Average(filtered, visit.FieldPerStudentRate),
		},
	}
	for _, v := range filtered {
		if visit.IsClosure(v.VisitPhase) {
			res.SuccessfulConversions++
		}
		if visit.IsPendingFollowUp(v.VisitPhase) {
			res.PendingFollowups++
		}
	}
	return res
}

// Apply returns the visits matching every active criterion of f, in input order.
func Apply(visits []visit.Visit, f Filter) []visit.Visit {
	cities := make(map[string]bool, len(f.Cities))
	for _, c := range f.Cities {
		cities[NormalizeCity(c)] = true
	}

	out := make([]visit.Visit, 0, len(visits))
	for _, v := range visits {
		if len(cities) > 0 && !cities[NormalizeCity(v.City)] {
			continue
		}
		if !matchesDate(v.DateTime, f) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// matchesDate applies the date range and month criteria. A visit whose
// date cannot be read passes both.
func matchesDate(dateTime string, f Filter) bool {
	d, ok := ParseVisitDate(dateTime)
	if !ok {
		return true
	}
	if f.From != nil && d.Before(day(*f.From)) {
		return false
	}
	if f.To != nil && d.After(day(*f.To)) {
		return false
	}
	if len(f.Months) > 0 && !slices.Contains(f.Months, int(d.Month())) {
		return false
	}
	return true
}

// Date layouts accepted for the part of dateTime before the first comma.
// Forms write en-IN dates, which are day first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"02-01-2006",
}

// ParseVisitDate reads the calendar day from a "<date>, <time>" string.
func ParseVisitDate(dateTime string) (time.Time, bool) {
	datePart, _, _ := strings.Cut(dateTime, ",")
	datePart = strings.TrimSpace(datePart)
	if datePart == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, datePart); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortByCodeDesc orders visits in place by visit code, highest first.
// Embedded numbers compare by value, letters ignore case.
func SortByCodeDesc(visits []visit.Visit) {
	col := collate.New(language.Und, collate.Numeric, collate.Loose)
	keys := make([]string, len(visits))
	for i := range visits {
		keys[i] = visits[i].VisitCode
	}
	sort.Stable(byCodeDesc{visits: visits, keys: keys, col: col})
}

type byCodeDesc struct {
	visits []visit.Visit
	keys   []string
	col    *collate.Collator
}

func (s byCodeDesc) Len() int { return len(s.visits) }
func (s byCodeDesc) Less(i, j int) bool {
	return s.col.CompareString(s.keys[i], s.keys[j]) > 0
}
func (s byCodeDesc) Swap(i, j int) {
	s.visits[i], s.visits[j] = s.visits[j], s.visits[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}

// Paginate returns a copy of the 1-indexed page of items. Pages outside
// the data are empty.
func Paginate[T any](items []T, number, size int) []T {
	if size < 1 {
		size = DefaultPageSize
	}
	// Bound number before multiplying so huge pages cannot wrap start negative.
	if number < 1 || len(items) == 0 || number-1 > (len(items)-1)/size {
		return []T{}
	}
	start := (number - 1) * size
	end := start + min(size, len(items)-start)
	return slices.Clone(items[start:end])
}

// TotalPages is the number of size-item pages needed for n items.
func TotalPages(n, size int) int {
	if size < 1 {
		size = DefaultPageSize
	}
	return int(math.Ceil(float64(n) / float64(size)))
}

// Recent returns the first n visits of an already ordered view.
func Recent(visits []visit.Visit, n int) []visit.Visit {
	k := max(0, min(n, len(visits)))
	out := make([]visit.Visit, 0, k)
	return append(out, visits[:k]...)
}
