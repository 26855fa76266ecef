package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/model"
	"github.com/medhealth/vitalcore/internal/signature"
	"github.com/medhealth/vitalcore/internal/types"
)

const ctxKeyDevice contextKey = "vitalcore_device"

// DeviceFromContext returns the verified device attached by DeviceSignature.
func DeviceFromContext(ctx context.Context) (*model.Device, bool) {
	dev, ok := ctx.Value(ctxKeyDevice).(*model.Device)
	return dev, ok
}

// DeviceSignature range-validates and then signature-verifies every
// device-ingestion request, reading and restoring the body so the wrapped
// handler can parse it again. Validation runs first: an out-of-range body
// is a bad request regardless of how it was signed.
func DeviceSignature(verifier *signature.Verifier, sink *audit.Sink) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				httpx.ErrorCtx(r.Context(), w, apperr.BadRequest("unable to read request body"))
				return
			}
			r.Body.Close()

			deviceID := r.Header.Get("X-Device-Id")

			var vitals types.DeviceVitalsIngestRequest
			if err := json.Unmarshal(body, &vitals); err != nil {
				httpx.ErrorCtx(r.Context(), w, apperr.BadRequest("malformed request body"))
				return
			}
			if err := vitals.ValidateRanges(); err != nil {
				sink.Record(r.Context(), audit.CategoryIngestion, "ingest_vitals", deviceID, "rejected", err.Error())
				httpx.ErrorCtx(r.Context(), w, apperr.BadRequest(err.Error()))
				return
			}

			req := signature.Request{
				DeviceID:  deviceID,
				Timestamp: r.Header.Get("X-Timestamp"),
				Signature: r.Header.Get("X-Signature"),
				Body:      body,
			}

			device, err := verifier.Verify(r.Context(), req, time.Now())
			if err != nil {
				reason := "verification failed"
				if rej, ok := signature.AsRejection(err); ok {
					reason = string(rej)
				}
				sink.Record(r.Context(), audit.CategoryIngestion, "ingest_vitals", req.DeviceID, "rejected", reason)
				httpx.ErrorCtx(r.Context(), w, apperr.Unauthorized("device signature verification failed"))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			ctx := context.WithValue(r.Context(), ctxKeyDevice, device)
			next(w, r.WithContext(ctx))
		}
	}
}
