package signature

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medhealth/vitalcore/internal/model"
)

type fakeDeviceLookup struct {
	devices map[string]*model.Device
}

func (f *fakeDeviceLookup) GetDeviceByExternalID(_ context.Context, externalID string) (*model.Device, error) {
	d, ok := f.devices[externalID]
	if !ok {
		return nil, errNotFound
	}
	return d, nil
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

func sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	lookup := &fakeDeviceLookup{devices: map[string]*model.Device{
		"dev-1": {ExternalID: "dev-1", IsActive: true},
	}}
	v := NewVerifier("shared-secret", 60*time.Second, lookup)

	now := time.Now()
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"heartRate":72}`)
	sig := sign("shared-secret", ts, body)

	device, err := v.Verify(context.Background(), Request{
		DeviceID: "dev-1", Timestamp: ts, Signature: sig, Body: body,
	}, now)
	require.NoError(t, err)
	require.Equal(t, "dev-1", device.ExternalID)
}

func TestVerifyRejectsMissingCredential(t *testing.T) {
	lookup := &fakeDeviceLookup{devices: map[string]*model.Device{}}
	v := NewVerifier("secret", 60*time.Second, lookup)
	_, err := v.Verify(context.Background(), Request{}, time.Now())
	reason, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectMissingCredential, reason)
}

func TestVerifyReplayBoundary(t *testing.T) {
	lookup := &fakeDeviceLookup{devices: map[string]*model.Device{
		"dev-1": {ExternalID: "dev-1", IsActive: true},
	}}
	v := NewVerifier("secret", 60*time.Second, lookup)
	now := time.Now()
	body := []byte(`{}`)

	// exactly at the boundary: accepted
	atBoundary := now.Add(-60 * time.Second)
	ts := strconv.FormatInt(atBoundary.Unix(), 10)
	sig := sign("secret", ts, body)
	_, err := v.Verify(context.Background(), Request{DeviceID: "dev-1", Timestamp: ts, Signature: sig, Body: body}, now)
	require.NoError(t, err)

	// one second past: rejected
	pastBoundary := now.Add(-61 * time.Second)
	ts2 := strconv.FormatInt(pastBoundary.Unix(), 10)
	sig2 := sign("secret", ts2, body)
	_, err = v.Verify(context.Background(), Request{DeviceID: "dev-1", Timestamp: ts2, Signature: sig2, Body: body}, now)
	reason, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectReplay, reason)
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	lookup := &fakeDeviceLookup{devices: map[string]*model.Device{
		"dev-1": {ExternalID: "dev-1", IsActive: true},
	}}
	v := NewVerifier("secret", 60*time.Second, lookup)
	now := time.Now()
	ts := strconv.FormatInt(now.Unix(), 10)
	original := []byte(`{"heartRate":72}`)
	sig := sign("secret", ts, original)

	tampered := []byte(`{"heartRate":999}`)
	_, err := v.Verify(context.Background(), Request{DeviceID: "dev-1", Timestamp: ts, Signature: sig, Body: tampered}, now)
	reason, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectBadSignature, reason)
}

func TestVerifyRejectsInactiveOrUnknownDevice(t *testing.T) {
	lookup := &fakeDeviceLookup{devices: map[string]*model.Device{
		"dev-1": {ExternalID: "dev-1", IsActive: false},
	}}
	v := NewVerifier("secret", 60*time.Second, lookup)
	now := time.Now()
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{}`)
	sig := sign("secret", ts, body)

	_, err := v.Verify(context.Background(), Request{DeviceID: "dev-1", Timestamp: ts, Signature: sig, Body: body}, now)
	reason, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectUnknownDevice, reason)

	_, err = v.Verify(context.Background(), Request{DeviceID: "unknown", Timestamp: ts, Signature: sig, Body: body}, now)
	reason, ok = AsRejection(err)
	require.True(t, ok)
	require.Equal(t, RejectUnknownDevice, reason)
}
