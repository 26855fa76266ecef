package device

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/analyzer"
	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/broadcast"
	"github.com/medhealth/vitalcore/internal/cache"
	"github.com/medhealth/vitalcore/internal/fhir"
	"github.com/medhealth/vitalcore/internal/middleware"
	"github.com/medhealth/vitalcore/internal/model"
	"github.com/medhealth/vitalcore/internal/svc"
	"github.com/medhealth/vitalcore/internal/types"
)

// IngestVitalsLogic orchestrates the store → analyze → store → project →
// store → cache → broadcast pipeline. DeviceSignature middleware has
// already range-validated the body, verified the caller, and attached the
// resolved device to the request context before this logic runs.
type IngestVitalsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewIngestVitalsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *IngestVitalsLogic {
	return &IngestVitalsLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *IngestVitalsLogic) Ingest(req *types.DeviceVitalsIngestRequest) (*types.DeviceVitalsIngestResponse, error) {
	device, ok := middleware.DeviceFromContext(l.ctx)
	if !ok {
		return nil, apperr.Unauthorized("device signature verification failed")
	}

	if err := req.ValidateRanges(); err != nil {
		l.svcCtx.Audit.Record(l.ctx, audit.CategoryIngestion, "ingest_vitals", device.ExternalID, "rejected", err.Error())
		return nil, apperr.BadRequest(err.Error())
	}

	reading := &model.SensorReading{
		DeviceID:   device.ID,
		ReadingAt:  time.Unix(req.Timestamp, 0).UTC(),
		ReceivedAt: time.Now().UTC(),
	}
	if req.HeartRate != 0 {
		hr := req.HeartRate
		reading.HeartRate = &hr
	}
	if req.SpO2 != 0 {
		spo2 := req.SpO2
		reading.SpO2 = &spo2
	}
	if req.Temperature != 0 {
		temp := req.Temperature
		reading.Temperature = &temp
	}
	quality := analyzer.SignalQuality(analyzer.Reading{
		HeartRate:   reading.HeartRate,
		SpO2:        reading.SpO2,
		Temperature: reading.Temperature,
	})
	reading.QualityScore = &quality

	if err := l.svcCtx.Store.InsertReading(l.ctx, reading); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "ingest: persist reading failed", err)
	}

	if err := l.svcCtx.Store.TouchDevice(l.ctx, device.ID.String()); err != nil {
		l.Logger.Errorf("ingest: touch device failed: %v", err)
	}

	result := analyzer.Analyze(analyzer.Reading{
		HeartRate:   reading.HeartRate,
		SpO2:        reading.SpO2,
		Temperature: reading.Temperature,
	}, l.svcCtx.Analyzer)

	l.persistAnalysis(reading, result)
	l.persistProjection(device.ID.String(), reading)

	snap := cache.Snapshot{
		DeviceID:     device.ID.String(),
		HeartRate:    reading.HeartRate,
		SpO2:         reading.SpO2,
		Temperature:  reading.Temperature,
		Timestamp:    reading.ReadingAt,
		QualityScore: result.SignalQuality,
	}
	if result.AlertLevel != analyzer.AlertNone {
		level := string(result.AlertLevel)
		snap.MlAlert = level
	}
	if err := l.svcCtx.Cache.SetLatest(l.ctx, snap); err != nil {
		l.Logger.Errorf("ingest: cache set_latest failed: %v", err)
	}

	l.svcCtx.Broadcaster.Publish(broadcast.Event{Type: broadcast.EventVitals, Vitals: snap})
	if result.ShouldAlert {
		l.svcCtx.Broadcaster.Publish(broadcast.Event{
			Type: broadcast.EventAlert,
			Alert: map[string]interface{}{
				"level":     result.AlertLevel,
				"message":   result.AlertMessage,
				"readingId": reading.ID,
			},
		})
	}

	l.svcCtx.Audit.Record(l.ctx, audit.CategoryIngestion, "ingest_vitals", device.ExternalID, "success", result.Classification)

	return &types.DeviceVitalsIngestResponse{Status: "accepted", ReadingID: reading.ID}, nil
}

// persistAnalysis inserts the analyzer's classification. A failure is
// logged and swallowed: the reading has already been persisted and must
// not be rolled back.
func (l *IngestVitalsLogic) persistAnalysis(reading *model.SensorReading, result analyzer.Result) {
	details, err := json.Marshal(map[string]interface{}{
		"rule_hits":    result.RuleHits,
		"heart_rate_z": result.HeartRateZ,
		"spo2_z":       result.SpO2Z,
	})
	if err != nil {
		l.Logger.Errorf("ingest: marshal analysis details failed: %v", err)
		return
	}

	analysis := &model.MlAnalysis{
		ReadingID:       reading.ID,
		AnomalyDetected: result.AnomalyDetected,
		AnomalyScore:    result.AnomalyScore,
		Classification:  result.Classification,
		AlertLevel:      string(result.AlertLevel),
		DetailsJSON:     string(details),
	}
	if err := l.svcCtx.Store.InsertAnalysis(l.ctx, analysis); err != nil {
		l.Logger.Errorf("ingest: persist analysis failed: %v", err)
	}
}

// persistProjection runs the FHIR projector and inserts one row per
// resulting observation. A failure is logged and swallowed, matching
// persistAnalysis's non-fatal policy.
func (l *IngestVitalsLogic) persistProjection(deviceID string, reading *model.SensorReading) {
	observations := fhir.ProjectObservations(fhir.Reading{
		HeartRate:   reading.HeartRate,
		SpO2:        reading.SpO2,
		Temperature: reading.Temperature,
		ReadingAt:   reading.ReadingAt,
		DeviceID:    deviceID,
	})
	for _, obs := range observations {
		payload, err := json.Marshal(obs)
		if err != nil {
			l.Logger.Errorf("ingest: marshal fhir observation failed: %v", err)
			continue
		}
		row := &model.FhirObservation{
			ReadingID:   reading.ID,
			ResourceID:  obs.ID,
			PayloadJSON: string(payload),
		}
		if err := l.svcCtx.Store.InsertFhirObservation(l.ctx, row); err != nil {
			l.Logger.Errorf("ingest: persist fhir observation failed: %v", err)
		}
	}
}
