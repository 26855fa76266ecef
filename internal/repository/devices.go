package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/medhealth/vitalcore/internal/model"
)

const selectActiveDeviceQuery = `
	SELECT id, external_id, display_name, is_active, secret_fingerprint, last_seen_at, created_at, updated_at
	FROM devices WHERE external_id = $1`

// GetDeviceByExternalID looks up a device by the identifier presented in
// X-Device-Id, regardless of active status — callers check IsActive
// themselves.
func (s *Store) GetDeviceByExternalID(ctx context.Context, externalID string) (*model.Device, error) {
	var d model.Device
	err := s.DB.GetContext(ctx, &d, selectActiveDeviceQuery, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return &d, nil
}

// TouchDevice updates last_seen_at after a successful ingest.
func (s *Store) TouchDevice(ctx context.Context, deviceID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE devices SET last_seen_at = $2 WHERE id = $1`, deviceID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("touch device: %w", err)
	}
	return nil
}

// CreateDevice inserts a device administratively.
func (s *Store) CreateDevice(ctx context.Context, d *model.Device) error {
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	d.IsActive = true
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO devices (id, external_id, display_name, is_active, secret_fingerprint, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.ExternalID, d.DisplayName, d.IsActive, d.SecretFingerprint, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}
