// Package types holds the HTTP-boundary request/response DTOs: one struct
// per request and response body.
package types

import "errors"

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the user object nested in AuthResponse.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

// LogoutResponse is returned by POST /auth/logout.
type LogoutResponse struct {
	Status string `json:"status"`
}

// LatestVitalsResponse is the body of GET /api/vitals/latest, matching
// the client-facing LatestVitals projection.
type LatestVitalsResponse struct {
	HeartRate    int      `json:"heartRate"`
	SpO2         int      `json:"spo2"`
	Temperature  float64  `json:"temperature"`
	Timestamp    int64    `json:"timestamp"`
	QualityScore *float64 `json:"quality_score"`
	MlAlert      *string  `json:"ml_alert"`
}

// DeviceVitalsIngestRequest is the signed body POSTed by a device. The
// three sensor values are individually optional; zero means absent.
type DeviceVitalsIngestRequest struct {
	HeartRate   int     `json:"heartRate,optional"`
	SpO2        int     `json:"spo2,optional"`
	Temperature float64 `json:"temperature,optional"`
	Timestamp   int64   `json:"timestamp"`
}

// ValidateRanges enforces the ingest body's range bounds. It runs before
// signature verification, so an out-of-range body is a bad request even
// when the signature is also wrong.
func (r *DeviceVitalsIngestRequest) ValidateRanges() error {
	if r.HeartRate < 0 || r.HeartRate > 300 {
		return errors.New("heartRate out of range [0,300]")
	}
	if r.SpO2 < 0 || r.SpO2 > 100 {
		return errors.New("spo2 out of range [0,100]")
	}
	// Zero means the temperature sensor value is absent, not a 0 degree reading.
	if r.Temperature != 0 && (r.Temperature < 25.0 || r.Temperature > 45.0) {
		return errors.New("temperature out of range [25.0,45.0]")
	}
	if r.HeartRate == 0 && r.SpO2 == 0 && r.Temperature == 0 {
		return errors.New("at least one sensor value must be present")
	}
	return nil
}

// DeviceVitalsIngestResponse is the body of POST /api/device/vitals.
type DeviceVitalsIngestResponse struct {
	Status    string `json:"status"`
	ReadingID int64  `json:"reading_id"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorBody is the uniform JSON error envelope required on every
// failure path.
type ErrorBody struct {
	Error string `json:"error"`
}
