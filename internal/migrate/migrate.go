// Package migrate applies the forward-only SQL migration set the record
// store boots with: a minimal embed.FS-plus-schema_migrations runner over
// database/sql.
package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/sql/migrations"
)

var files = migrations.Files

const createTrackingTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// Apply runs every *.sql file embedded by the sql/migrations package, in
// filename order, skipping any version already recorded in
// schema_migrations. Each migration runs inside its own transaction.
func Apply(db *sql.DB) error {
	if _, err := db.Exec(createTrackingTable); err != nil {
		return fmt.Errorf("migrate: create tracking table: %w", err)
	}

	entries, err := fs.Glob(files, "*.sql")
	if err != nil {
		return fmt.Errorf("migrate: glob migrations: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		applied, err := isApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		body, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", name, err)
		}

		if err := applyOne(db, name, string(body)); err != nil {
			return err
		}
		logx.Infof("migrate: applied %s", name)
	}
	return nil
}

func isApplied(db *sql.DB, version string) (bool, error) {
	var exists bool
	err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("migrate: check %s applied: %w", version, err)
	}
	return exists, nil
}

func applyOne(db *sql.DB, version, body string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(body); err != nil {
		return fmt.Errorf("migrate: apply %s: %w", version, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("migrate: record %s: %w", version, err)
	}
	return tx.Commit()
}
