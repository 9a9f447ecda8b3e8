package visit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/evcraddock/trackmate/internal/apperrors"
)

// Repository stores visits in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a visit repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

const selectColumns = `id, category, visit_code, organization, city, state, visit_phase, date_time,
	contact_name, contact_designation, contact_number, contact_email, representative,
	visit_purpose, courses, amounts_json, extra_json, created_at`

type storedAmounts struct {
	StudentCount       Amount `json:"studentCount"`
	TotalContractValue Amount `json:"totalContractValue"`
	PerStudentRate     Amount `json:"perStudentRate"`
}

// Add inserts v and returns the stored record. An empty ID gets a new uuid.
// A second visit with the same category and code fails with apperrors.ErrDuplicate.
func (r *Repository) Add(ctx context.Context, v *Visit) (*Visit, error) {
	if !v.Category.IsValid() {
		return nil, fmt.Errorf("%w: invalid category %q", apperrors.ErrValidation, v.Category)
	}
	if v.VisitCode == "" {
		return nil, fmt.Errorf("%w: visit code is required", apperrors.ErrValidation)
	}

	id := v.ID
	if id == "" {
		id = uuid.NewString()
	}

	amounts, err := json.Marshal(storedAmounts{
		StudentCount:       v.StudentCount,
		TotalContractValue: v.TotalContractValue,
		PerStudentRate:     v.PerStudentRate,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding amounts: %w", err)
	}

	extra := []byte("{}")
	if len(v.Extra) > 0 {
		extra, err = json.Marshal(v.Extra)
		if err != nil {
			return nil, fmt.Errorf("encoding extra fields: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO visits (id, category, visit_code, organization, city, state, visit_phase, date_time,
			contact_name, contact_designation, contact_number, contact_email, representative,
			visit_purpose, courses, amounts_json, extra_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, v.Category, v.VisitCode, v.Organization, v.City, v.State, v.VisitPhase, v.DateTime,
		v.ContactName, v.ContactDesignation, v.ContactNumber, v.ContactEmail, v.Representative,
		v.VisitPurpose, v.Courses, string(amounts), string(extra), time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: visit code %s already exists", apperrors.ErrDuplicate, v.VisitCode)
		}
		return nil, fmt.Errorf("inserting visit: %w", err)
	}

	return r.Get(ctx, id)
}

// Get returns a visit by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Visit, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM visits WHERE id = ?", id)
	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("visit %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting visit: %w", err)
	}
	return v, nil
}

// List returns the visits of a category in insertion order. An empty
// category lists everything.
func (r *Repository) List(ctx context.Context, c Category) (visits []Visit, err error) {
	query := "SELECT " + selectColumns + " FROM visits"
	var args []any
	if c != "" {
		query += " WHERE category = ?"
		args = append(args, c)
	}
	query += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing visits: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	visits = []Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		visits = append(visits, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visits: %w", err)
	}

	return visits, nil
}

// Delete removes a visit by ID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM visits WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting visit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visit %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVisit(s scanner) (*Visit, error) {
	var v Visit
	var amounts, extra string
	err := s.Scan(&v.ID, &v.Category, &v.VisitCode, &v.Organization, &v.City, &v.State,
		&v.VisitPhase, &v.DateTime, &v.ContactName, &v.ContactDesignation, &v.ContactNumber,
		&v.ContactEmail, &v.Representative, &v.VisitPurpose, &v.Courses, &amounts, &extra, &v.CreatedAt)
	if err != nil {
		return nil, err
	}

	var a storedAmounts
	if err := json.Unmarshal([]byte(amounts), &a); err != nil {
		return nil, fmt.Errorf("decoding amounts: %w", err)
	}
	v.StudentCount = a.StudentCount
	v.TotalContractValue = a.TotalContractValue
	v.PerStudentRate = a.PerStudentRate

	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &v.Extra); err != nil {
			return nil, fmt.Errorf("decoding extra fields: %w", err)
		}
	}
	return &v, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
