package visitcode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/evcraddock/trackmate/internal/apperrors"
)

// SQLCounter keeps last codes in the visit_codes table. The database must be
// opened with db.Open so transactions begin IMMEDIATE.
type SQLCounter struct {
	db *sql.DB
}

// NewSQLCounter creates a counter over db.
func NewSQLCounter(db *sql.DB) *SQLCounter {
	return &SQLCounter{db: db}
}

var _ Counter = (*SQLCounter)(nil)

// Advance implements Counter inside a single write transaction.
func (c *SQLCounter) Advance(ctx context.Context, key string, fn func(last string) string) (next string, err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", busy(fmt.Errorf("beginning transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var last string
	err = tx.QueryRowContext(ctx, "SELECT last_code FROM visit_codes WHERE key = ?", key).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", busy(fmt.Errorf("reading last code: %w", err))
	}

	next = fn(last)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO visit_codes (key, last_code, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET last_code = excluded.last_code, updated_at = excluded.updated_at`,
		key, next,
	)
	if err != nil {
		return "", busy(fmt.Errorf("storing last code: %w", err))
	}

	if err = tx.Commit(); err != nil {
		return "", busy(fmt.Errorf("committing code: %w", err))
	}
	return next, nil
}

// Last implements Counter.
func (c *SQLCounter) Last(ctx context.Context, key string) (string, error) {
	var last string
	err := c.db.QueryRowContext(ctx, "SELECT last_code FROM visit_codes WHERE key = ?", key).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading last code: %w", err)
	}
	return last, nil
}

// busy marks SQLITE_BUSY and SQLITE_LOCKED failures as retryable.
func busy(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %w", apperrors.ErrBusy, err)
	}
	return err
}
