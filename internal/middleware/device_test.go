package middleware

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/model"
	"github.com/medhealth/vitalcore/internal/signature"
)

type fakeDeviceLookup struct {
	devices map[string]*model.Device
}

func (f *fakeDeviceLookup) GetDeviceByExternalID(_ context.Context, externalID string) (*model.Device, error) {
	d, ok := f.devices[externalID]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

func signBody(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestDeviceSignatureMiddleware(t *testing.T) {
	httpx.SetErrorHandler(apperr.Handler)

	lookup := &fakeDeviceLookup{devices: map[string]*model.Device{
		"dev-1": {ExternalID: "dev-1", IsActive: true},
	}}
	verifier := signature.NewVerifier("shared-secret", 60*time.Second, lookup)

	var gotBody []byte
	var gotDevice *model.Device
	handler := DeviceSignature(verifier, audit.NewSink(nil))(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotDevice, _ = DeviceFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	body := []byte(`{"heartRate":72,"spo2":98,"temperature":36.8,"timestamp":1}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	t.Run("valid signature passes with body restored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/device/vitals", bytes.NewReader(body))
		r.Header.Set("X-Device-Id", "dev-1")
		r.Header.Set("X-Timestamp", ts)
		r.Header.Set("X-Signature", signBody("shared-secret", ts, body))
		w := httptest.NewRecorder()
		handler(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, body, gotBody)
		require.NotNil(t, gotDevice)
		require.Equal(t, "dev-1", gotDevice.ExternalID)
	})

	t.Run("tampered body is rejected", func(t *testing.T) {
		tampered := []byte(`{"heartRate":250,"spo2":98,"temperature":36.8,"timestamp":1}`)
		r := httptest.NewRequest(http.MethodPost, "/api/device/vitals", bytes.NewReader(tampered))
		r.Header.Set("X-Device-Id", "dev-1")
		r.Header.Set("X-Timestamp", ts)
		r.Header.Set("X-Signature", signBody("shared-secret", ts, body))
		w := httptest.NewRecorder()
		handler(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing headers are rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/device/vitals", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("out-of-range body is a bad request even when unsigned", func(t *testing.T) {
		outOfRange := []byte(`{"heartRate":400,"spo2":98,"temperature":36.8,"timestamp":1}`)
		r := httptest.NewRequest(http.MethodPost, "/api/device/vitals", bytes.NewReader(outOfRange))
		w := httptest.NewRecorder()
		handler(w, r)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/device/vitals", bytes.NewReader([]byte("not json")))
		w := httptest.NewRecorder()
		handler(w, r)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
