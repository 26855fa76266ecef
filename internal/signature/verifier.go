// Package signature implements the device signature verifier: HMAC-SHA256
// over "{timestamp}.{body}" plus a replay window, compared in constant
// time.
package signature

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/medhealth/vitalcore/internal/model"
)

// Rejection enumerates the specific signature failure modes, so callers
// can map each to the unauthorized HTTP boundary while still
// distinguishing them in logs/audit.
type Rejection string

const (
	RejectMissingCredential Rejection = "missing-credential"
	RejectReplay            Rejection = "replay-rejected"
	RejectBadSignature      Rejection = "bad-signature"
	RejectUnknownDevice     Rejection = "unknown-device"
)

// Error wraps a Rejection so errors.As can recover it at the handler boundary.
type Error struct {
	Reason Rejection
}

func (e *Error) Error() string {
	return string(e.Reason)
}

func reject(r Rejection) error {
	return &Error{Reason: r}
}

// DeviceLookup resolves a device by its externally-known identifier.
type DeviceLookup interface {
	GetDeviceByExternalID(ctx context.Context, externalID string) (*model.Device, error)
}

// Verifier checks device request signatures.
type Verifier struct {
	secret       string
	replayWindow time.Duration
	devices      DeviceLookup
}

func NewVerifier(secret string, replayWindow time.Duration, devices DeviceLookup) *Verifier {
	return &Verifier{secret: secret, replayWindow: replayWindow, devices: devices}
}

// Request bundles the inputs to a single verification call.
type Request struct {
	DeviceID  string
	Timestamp string
	Signature string
	Body      []byte
}

// Verify runs the four ordered rules and returns the resolved, active
// device on success.
func (v *Verifier) Verify(ctx context.Context, req Request, now time.Time) (*model.Device, error) {
	if req.DeviceID == "" || req.Timestamp == "" || req.Signature == "" {
		return nil, reject(RejectMissingCredential)
	}

	ts, err := strconv.ParseInt(req.Timestamp, 10, 64)
	if err != nil {
		return nil, reject(RejectMissingCredential)
	}
	// The timestamp has whole-second precision, so compare in whole seconds.
	delta := now.Unix() - ts
	if delta < 0 {
		delta = -delta
	}
	if delta < 0 || delta > int64(v.replayWindow/time.Second) {
		return nil, reject(RejectReplay)
	}

	if !v.signatureMatches(req.Timestamp, req.Body, req.Signature) {
		return nil, reject(RejectBadSignature)
	}

	device, err := v.devices.GetDeviceByExternalID(ctx, req.DeviceID)
	if err != nil {
		return nil, reject(RejectUnknownDevice)
	}
	if device == nil || !device.IsActive {
		return nil, reject(RejectUnknownDevice)
	}
	return device, nil
}

// signatureMatches computes HMAC-SHA256(secret, "{timestamp}.{body}") over
// the exact received bytes — never a re-serialized form — and compares it
// to the claimed signature in constant time.
func (v *Verifier) signatureMatches(timestamp string, body []byte, claimed string) bool {
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	decoded, err := base64.StdEncoding.DecodeString(claimed)
	if err != nil {
		return false
	}
	if len(decoded) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(decoded, expected) == 1
}

// AsRejection recovers the Rejection reason from an error, if any.
func AsRejection(err error) (Rejection, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return "", false
}
