package vitals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/broadcast"
	"github.com/medhealth/vitalcore/internal/middleware"
	"github.com/medhealth/vitalcore/internal/svc"
)

const heartbeatInterval = 30 * time.Second

// StreamVitalsLogic serves GET /api/stream/vitals: an initial heartbeat,
// then every broadcaster event plus a synthetic heartbeat every 30s,
// written as "event: <type>\ndata: <json>\n\n" until the client disconnects.
type StreamVitalsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewStreamVitalsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StreamVitalsLogic {
	return &StreamVitalsLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

// Stream multiplexes the broadcaster subscription and a 30s heartbeat
// ticker onto w until r's context is cancelled. w must support
// http.Flusher; callers set the SSE headers before invoking Stream.
func (l *StreamVitalsLogic) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	userID, _ := middleware.UserIDFromContext(l.ctx)
	l.svcCtx.Audit.Record(l.ctx, audit.CategoryAccess, "stream_vitals", userID.String(), "success", "")

	sub := l.svcCtx.Broadcaster.Subscribe()
	defer sub.Close()

	if err := writeEvent(w, broadcast.EventHeartbeat, time.Now().Unix()); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := writeEvent(w, broadcast.EventHeartbeat, time.Now().Unix()); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				// Subscriber was dropped for lagging; close the connection.
				return
			}
			payload := event.Vitals
			if event.Type == broadcast.EventAlert {
				payload = event.Alert
			}
			if err := writeEvent(w, event.Type, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, eventType broadcast.EventType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	return err
}
