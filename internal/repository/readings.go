package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medhealth/vitalcore/internal/model"
)

// InsertReading persists a sensor reading and returns its assigned,
// monotonically increasing id.
func (s *Store) InsertReading(ctx context.Context, r *model.SensorReading) error {
	const q = `
		INSERT INTO sensor_readings (device_id, heart_rate, spo2, temperature, reading_at, received_at, quality_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := s.DB.QueryRowContext(ctx, q,
		r.DeviceID, r.HeartRate, r.SpO2, r.Temperature, r.ReadingAt, r.ReceivedAt, r.QualityScore).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// InsertAnalysis persists the anomaly classification for a reading.
func (s *Store) InsertAnalysis(ctx context.Context, a *model.MlAnalysis) error {
	const q = `
		INSERT INTO ml_analysis (reading_id, anomaly_detected, anomaly_score, classification, alert_level, details_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`
	err := s.DB.QueryRowContext(ctx, q,
		a.ReadingID, a.AnomalyDetected, a.AnomalyScore, a.Classification, a.AlertLevel, a.DetailsJSON).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// InsertFhirObservation persists one projected bundle entry.
func (s *Store) InsertFhirObservation(ctx context.Context, o *model.FhirObservation) error {
	const q = `
		INSERT INTO fhir_observations (reading_id, resource_id, payload_json, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at`
	err := s.DB.QueryRowContext(ctx, q, o.ReadingID, o.ResourceID, o.PayloadJSON).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert fhir observation: %w", err)
	}
	return nil
}

// RecentFhirPayloads returns every stored FHIR Observation payload
// belonging to the readingLimit most recent readings, ordered
// newest-reading-first then entry-insertion-order — the export endpoint's
// "concatenate entries from up to N most recent readings" contract.
func (s *Store) RecentFhirPayloads(ctx context.Context, readingLimit int) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT fo.payload_json
		FROM fhir_observations fo
		JOIN (
			SELECT id FROM sensor_readings ORDER BY id DESC LIMIT $1
		) recent ON recent.id = fo.reading_id
		ORDER BY fo.reading_id DESC, fo.id ASC`, readingLimit)
	if err != nil {
		return nil, fmt.Errorf("recent fhir payloads: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan fhir payload: %w", err)
		}
		out = append(out, payload)
	}
	return out, rows.Err()
}

// LatestReadingForDevice returns the most recent stored reading of one device.
func (s *Store) LatestReadingForDevice(ctx context.Context, deviceID string) (*model.SensorReading, error) {
	var r model.SensorReading
	err := s.DB.GetContext(ctx, &r, `
		SELECT id, device_id, heart_rate, spo2, temperature, reading_at, received_at, quality_score
		FROM sensor_readings WHERE device_id = $1 ORDER BY id DESC LIMIT 1`, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return &r, nil
}

// LatestReadingAny returns the most recent reading across all devices, used
// as the store fallback for the single-tenant /api/vitals/latest endpoint.
func (s *Store) LatestReadingAny(ctx context.Context) (*model.SensorReading, error) {
	var r model.SensorReading
	err := s.DB.GetContext(ctx, &r, `
		SELECT id, device_id, heart_rate, spo2, temperature, reading_at, received_at, quality_score
		FROM sensor_readings ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading any: %w", err)
	}
	return &r, nil
}

// LatestAlertLevel returns the alert level of the most recent analysis, if any.
func (s *Store) LatestAlertLevel(ctx context.Context) (*string, error) {
	var level string
	err := s.DB.GetContext(ctx, &level, `
		SELECT alert_level FROM ml_analysis ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest alert level: %w", err)
	}
	return &level, nil
}
