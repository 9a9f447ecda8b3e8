package expense

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evcraddock/trackmate/internal/apperrors"
	"github.com/evcraddock/trackmate/internal/visit"
)

// Repository stores expenses in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an expense repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Add inserts all expenses in one transaction and returns them with IDs set.
func (r *Repository) Add(ctx context.Context, list []Expense) (_ []Expense, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	out := make([]Expense, 0, len(list))
	for _, e := range list {
		if !e.Category.IsValid() {
			return nil, fmt.Errorf("%w: invalid category %q", apperrors.ErrValidation, e.Category)
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.CreatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expenses (id, category, organization, visit_type, allocated_amount, spent_amount,
				food, fuel, stay, toll, remarks, date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Category, e.Organization, e.VisitType, e.AllocatedAmount, e.SpentAmount,
			e.Food, e.Fuel, e.Stay, e.Toll, e.Remarks, e.Date.UTC(), e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting expense: %w", err)
		}
		out = append(out, e)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing expenses: %w", err)
	}
	return out, nil
}

// List returns expenses of a category, newest date first. An empty category
// lists everything.
func (r *Repository) List(ctx context.Context, c visit.Category) (list []Expense, err error) {
	query := `SELECT id, category, organization, visit_type, allocated_amount, spent_amount,
		food, fuel, stay, toll, remarks, date, created_at FROM expenses`
	var args []any
	if c != "" {
		query += " WHERE category = ?"
		args = append(args, c)
	}
	query += " ORDER BY date DESC, rowid DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	list = []Expense{}
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Organization, &e.VisitType, &e.AllocatedAmount,
			&e.SpentAmount, &e.Food, &e.Fuel, &e.Stay, &e.Toll, &e.Remarks, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		list = append(list, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return list, nil
}
