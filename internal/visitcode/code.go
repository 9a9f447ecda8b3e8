// Package visitcode issues sequential visit codes such as SALES_VISIT_07.
//
// A code is "<PREFIX>_<N>" where N is zero-padded to two digits and grows
// past 99 without truncation. Each series keeps its last issued code under
// its own counter key.
package visitcode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/evcraddock/trackmate/internal/metrics"
	"github.com/evcraddock/trackmate/internal/visit"
)

// ErrMalformedCode is returned when a stored code does not parse as <PREFIX>_<N>.
var ErrMalformedCode = errors.New("malformed visit code")

// Series is one code sequence.
type Series struct {
	Prefix string // e.g. SALES_VISIT
	Key    string // counter key in the store
}

var (
	Sales     = Series{Prefix: "SALES_VISIT", Key: "sales_visitcode"}
	Placement = Series{Prefix: "PLACEMENT_VISIT", Key: "placement_visitcode"}
)

// ForCategory returns the series a visit category draws codes from.
func ForCategory(c visit.Category) (Series, error) {
	switch c {
	case visit.Sales:
		return Sales, nil
	case visit.Placement:
		return Placement, nil
	default:
		return Series{}, fmt.Errorf("no code series for category %q", c)
	}
}

// Format renders n in the canonical form for prefix.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s_%02d", prefix, n)
}

// Split separates code into its prefix and number at the last underscore.
func Split(code string) (string, int, error) {
	i := strings.LastIndex(code, "_")
	if i <= 0 || i == len(code)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	suffix := code[i+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return "", 0, fmt.Errorf("%w: %q", ErrMalformedCode, code)
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %v", ErrMalformedCode, code, err)
	}
	return code[:i], n, nil
}

// Increment returns code with its numeric suffix raised by one, keeping the prefix.
func Increment(code string) (string, error) {
	prefix, n, err := Split(code)
	if err != nil {
		return "", err
	}
	if n == math.MaxInt {
		return "", fmt.Errorf("%w: %q has no successor", ErrMalformedCode, code)
	}
	return Format(prefix, n+1), nil
}

// Seed is the first code of the series.
func (s Series) Seed() string {
	return Format(s.Prefix, 1)
}

// Next returns the code after last. An empty last yields the seed. The prefix
// of last must match the series, ignoring case; the result always carries the
// canonical prefix.
func (s Series) Next(last string) (string, error) {
	last = strings.TrimSpace(last)
	if last == "" {
		return s.Seed(), nil
	}
	prefix, n, err := Split(last)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(prefix, s.Prefix) {
		return "", fmt.Errorf("%w: %q does not belong to series %s", ErrMalformedCode, last, s.Prefix)
	}
	if n == math.MaxInt {
		return "", fmt.Errorf("%w: %q has no successor", ErrMalformedCode, last)
	}
	return Format(s.Prefix, n+1), nil
}

// Generator wraps a Series with the recovery policy for malformed state:
// it never fails, it logs a warning and restarts at the seed.
type Generator struct {
	Series Series
	Logger *zap.Logger
}

// Next returns the code after last, or the seed when last is malformed.
func (g Generator) Next(last string) string {
	code, err := g.Series.Next(last)
	if err == nil {
		return code
	}

	metrics.MalformedCodesTotal.WithLabelValues(g.Series.Key).Inc()
	logger := g.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger.Warn("malformed last visit code, restarting series",
		zap.String("series", g.Series.Key),
		zap.String("last", last),
		zap.Error(err),
	)
	return g.Series.Seed()
}
