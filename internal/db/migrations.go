package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS visits (
		id                  TEXT    PRIMARY KEY,
		category            TEXT    NOT NULL CHECK (category IN ('sales', 'placement')),
		visit_code          TEXT    NOT NULL,
		organization        TEXT    NOT NULL DEFAULT '',
		city                TEXT    NOT NULL DEFAULT '',
		state               TEXT    NOT NULL DEFAULT '',
		visit_phase         TEXT    NOT NULL DEFAULT '',
		date_time           TEXT    NOT NULL DEFAULT '',
		contact_name        TEXT    NOT NULL DEFAULT '',
		contact_designation TEXT    NOT NULL DEFAULT '',
		contact_number      TEXT    NOT NULL DEFAULT '',
		contact_email       TEXT    NOT NULL DEFAULT '',
		representative      TEXT    NOT NULL DEFAULT '',
		visit_purpose       TEXT    NOT NULL DEFAULT '',
		courses             TEXT    NOT NULL DEFAULT '',
		amounts_json        TEXT    NOT NULL DEFAULT '{}',
		extra_json          TEXT    NOT NULL DEFAULT '{}',
		created_at          DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (category, visit_code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visits_category ON visits (category)`,
	`CREATE TABLE IF NOT EXISTS visit_codes (
		key        TEXT     PRIMARY KEY,
		last_code  TEXT     NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id               TEXT    PRIMARY KEY,
		category         TEXT    NOT NULL CHECK (category IN ('sales', 'placement')),
		organization     TEXT    NOT NULL,
		visit_type       TEXT    NOT NULL DEFAULT '',
		allocated_amount REAL    NOT NULL DEFAULT 0,
		spent_amount     REAL    NOT NULL DEFAULT 0,
		food             REAL    NOT NULL DEFAULT 0,
		fuel             REAL    NOT NULL DEFAULT 0,
		stay             REAL    NOT NULL DEFAULT 0,
		toll             REAL    NOT NULL DEFAULT 0,
		date             DATETIME NOT NULL,
		created_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"expenses", "remarks", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing column info: %w", err)
	}
	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
