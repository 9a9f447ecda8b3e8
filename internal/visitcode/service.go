package visitcode

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/evcraddock/trackmate/internal/apperrors"
	"github.com/evcraddock/trackmate/internal/metrics"
	"github.com/evcraddock/trackmate/internal/visit"
)

// Counter stores the last issued code per key.
type Counter interface {
	// Advance reads the last code for key ("" when none), computes
	// next := fn(last), stores next and returns it, as one atomic step.
	// Errors wrapping apperrors.ErrBusy may be retried.
	Advance(ctx context.Context, key string, fn func(last string) string) (string, error)
	// Last returns the last stored code for key, or "" when none.
	Last(ctx context.Context, key string) (string, error)
}

// Service issues codes for one series.
type Service struct {
	gen        Generator
	counter    Counter
	maxElapsed time.Duration
}

// NewService creates a code service for series s backed by counter.
func NewService(s Series, counter Counter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{
		gen:        Generator{Series: s, Logger: logger},
		counter:    counter,
		maxElapsed: 5 * time.Second,
	}
}

// Series returns the series this service issues.
func (s *Service) Series() Series { return s.gen.Series }

// Next reserves and returns the next code. Busy stores are retried with
// exponential backoff until ctx ends or the retry budget runs out.
func (s *Service) Next(ctx context.Context) (string, error) {
	var code string
	op := func() error {
		c, err := s.counter.Advance(ctx, s.gen.Series.Key, s.gen.Next)
		if err != nil {
			if apperrors.IsBusy(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		code = c
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = s.maxElapsed

	notify := func(err error, wait time.Duration) {
		s.gen.Logger.Debug("visit code counter busy, retrying",
			zap.String("series", s.gen.Series.Key),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return "", fmt.Errorf("issuing %s code: %w", s.gen.Series.Prefix, err)
	}

	metrics.VisitCodesIssuedTotal.WithLabelValues(s.gen.Series.Key).Inc()
	return code, nil
}

// Peek returns the code Next would issue now, without reserving it.
func (s *Service) Peek(ctx context.Context) (string, error) {
	last, err := s.counter.Last(ctx, s.gen.Series.Key)
	if err != nil {
		return "", fmt.Errorf("reading last %s code: %w", s.gen.Series.Prefix, err)
	}
	return s.gen.Next(last), nil
}

// Registry holds one service per visit category.
type Registry map[visit.Category]*Service

// NewRegistry builds services for the sales and placement series over one counter.
func NewRegistry(counter Counter, logger *zap.Logger) Registry {
	return Registry{
		visit.Sales:     NewService(Sales, counter, logger),
		visit.Placement: NewService(Placement, counter, logger),
	}
}

// For returns the service for category c.
func (r Registry) For(c visit.Category) (*Service, error) {
	svc, ok := r[c]
	if !ok {
		return nil, fmt.Errorf("%w: no code series for category %q", apperrors.ErrValidation, c)
	}
	return svc, nil
}
