package web

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/trackmate/internal/dashboard"
	"github.com/evcraddock/trackmate/internal/visit"
)

type visitQuery struct {
	Category visit.Category
	Filter   dashboard.Filter
	Page     dashboard.Page
}

// parseVisitQuery reads category, city, from, to, month, page and per_page.
func parseVisitQuery(q url.Values, maxPageSize int) (visitQuery, error) {
	var out visitQuery

	c, err := parseCategory(q.Get("category"))
	if err != nil {
		return out, err
	}
	out.Category = c

	out.Filter.Cities = listValues(q["city"])

	if out.Filter.From, err = parseDay(q.Get("from"), "from"); err != nil {
		return out, err
	}
	if out.Filter.To, err = parseDay(q.Get("to"), "to"); err != nil {
		return out, err
	}
	if out.Filter.From != nil && out.Filter.To != nil && out.Filter.To.Before(*out.Filter.From) {
		return out, fmt.Errorf("to must not be before from")
	}

	for _, m := range listValues(q["month"]) {
		n, err := strconv.Atoi(m)
		if err != nil || n < 1 || n > 12 {
			return out, fmt.Errorf("month must be 1-12, got %q", m)
		}
		out.Filter.Months = append(out.Filter.Months, n)
	}

	out.Page, err = parsePage(q, dashboard.DefaultPageSize, maxPageSize)
	return out, err
}

// parsePage reads page and per_page. per_page above max is capped.
func parsePage(q url.Values, defaultSize, maxSize int) (dashboard.Page, error) {
	p := dashboard.Page{Number: 1, Size: defaultSize}
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, fmt.Errorf("page must be a positive integer")
		}
		p.Number = n
	}
	if s := q.Get("per_page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return p, fmt.Errorf("per_page must be a positive integer")
		}
		p.Size = min(n, maxSize)
	}
	return p, nil
}

// parseCategory defaults to sales.
func parseCategory(s string) (visit.Category, error) {
	if strings.TrimSpace(s) == "" {
		return visit.Sales, nil
	}
	return visit.ParseCategory(s)
}

func parseDay(s, name string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", name)
	}
	return &t, nil
}

// listValues flattens repeated and comma-separated values, dropping blanks.
func listValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
