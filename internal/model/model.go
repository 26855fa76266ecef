// Package model holds the durable record types the store reads and writes.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's authorization role. Only "viewer" is issued by signup
// today; the type exists so the core's contract is explicit about role
// propagating through tokens.
type Role string

const RoleViewer Role = "viewer"

// User is an authenticated clinician account.
type User struct {
	ID                  uuid.UUID  `db:"id"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	PasswordSalt        string     `db:"password_salt"`
	Role                Role       `db:"role"`
	IsActive            bool       `db:"is_active"`
	FailedLoginAttempts int        `db:"failed_login_attempts"`
	LockedUntil         *time.Time `db:"locked_until"`
	LastLoginAt         *time.Time `db:"last_login_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// Locked reports whether the user's lockout window is still in effect.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// Device is a registered telemetry source.
type Device struct {
	ID                uuid.UUID  `db:"id"`
	ExternalID        string     `db:"external_id"`
	DisplayName       string     `db:"display_name"`
	IsActive          bool       `db:"is_active"`
	SecretFingerprint string     `db:"secret_fingerprint"`
	LastSeenAt        *time.Time `db:"last_seen_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// SensorReading is one ingested vitals sample. Its id is a
// database sequence, not a uuid, to satisfy the "monotonically increasing"
// invariant readers can rely on for ordering.
type SensorReading struct {
	ID           int64     `db:"id"`
	DeviceID     uuid.UUID `db:"device_id"`
	HeartRate    *int      `db:"heart_rate"`
	SpO2         *int      `db:"spo2"`
	Temperature  *float64  `db:"temperature"`
	ReadingAt    time.Time `db:"reading_at"`
	ReceivedAt   time.Time `db:"received_at"`
	QualityScore *float64  `db:"quality_score"`
}

// MlAnalysis is the one-to-one anomaly classification of a reading.
type MlAnalysis struct {
	ID              int64     `db:"id"`
	ReadingID       int64     `db:"reading_id"`
	AnomalyDetected bool      `db:"anomaly_detected"`
	AnomalyScore    float64   `db:"anomaly_score"`
	Classification  string    `db:"classification"`
	AlertLevel      string    `db:"alert_level"`
	DetailsJSON     string    `db:"details_json"`
	CreatedAt       time.Time `db:"created_at"`
}

// FhirObservation carries the emitted FHIR resource verbatim.
type FhirObservation struct {
	ID          int64     `db:"id"`
	ReadingID   int64     `db:"reading_id"`
	ResourceID  string    `db:"resource_id"`
	PayloadJSON string    `db:"payload_json"`
	CreatedAt   time.Time `db:"created_at"`
}

// RevokedToken shadows a bearer token's jti until its original expiry.
type RevokedToken struct {
	TokenID   string    `db:"token_id"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// AuditEvent is an append-only authentication/access/ingestion outcome
// record. It never carries raw clinical values.
type AuditEvent struct {
	ID        int64     `db:"id"`
	Category  string    `db:"category"`
	Action    string    `db:"action"`
	Subject   string    `db:"subject"`
	Outcome   string    `db:"outcome"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}
