package repository

import (
	"context"
	"fmt"
)

// InsertAuditEvent appends an audit row. Callers must never pass raw
// clinical values in detail.
func (s *Store) InsertAuditEvent(ctx context.Context, category, action, subject, outcome, detail string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO audit_logs (category, action, subject, outcome, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		category, action, subject, outcome, detail)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
