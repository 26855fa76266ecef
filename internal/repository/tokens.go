package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RevokeToken inserts the token id into the revocation shadow set,
// idempotent on token_id.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO revoked_tokens (token_id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (token_id) DO NOTHING`,
		tokenID, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether token_id is present with a still-future
// expiry.
func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var exists bool
	err := s.DB.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token_id = $1 AND expires_at > now())`, tokenID)
	if err != nil {
		return false, fmt.Errorf("is token revoked: %w", err)
	}
	return exists, nil
}

// SweepExpiredRevocations deletes revocation rows whose shadow has
// expired. cmd/vitalcore-server runs this on a ticker.
func (s *Store) SweepExpiredRevocations(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("sweep expired revocations: %w", err)
	}
	return res.RowsAffected()
}
