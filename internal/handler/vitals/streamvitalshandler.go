package vitals

import (
	"net/http"

	"github.com/medhealth/vitalcore/internal/logic/vitals"
	"github.com/medhealth/vitalcore/internal/svc"
)

// StreamVitalsHandler serves the long-lived SSE connection. Headers are
// set here, ahead of any write, so intermediary buffering is disabled and
// the client sees the correct content type from the first byte.
func StreamVitalsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		l := vitals.NewStreamVitalsLogic(r.Context(), svcCtx)
		l.Stream(w, r)
	}
}
