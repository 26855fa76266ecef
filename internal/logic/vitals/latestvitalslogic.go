package vitals

import (
	"context"
	"errors"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/cache"
	"github.com/medhealth/vitalcore/internal/middleware"
	"github.com/medhealth/vitalcore/internal/repository"
	"github.com/medhealth/vitalcore/internal/svc"
	"github.com/medhealth/vitalcore/internal/types"
)

// LatestVitalsLogic serves GET /api/vitals/latest: cache-first, with a
// store fallback that returns a zero-valued snapshot if nothing is stored.
type LatestVitalsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLatestVitalsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LatestVitalsLogic {
	return &LatestVitalsLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *LatestVitalsLogic) Latest() (*types.LatestVitalsResponse, error) {
	userID, _ := middleware.UserIDFromContext(l.ctx)
	l.svcCtx.Audit.Record(l.ctx, audit.CategoryAccess, "vitals_latest", userID.String(), "success", "")

	snap, err := l.svcCtx.Cache.GetLatest(l.ctx, cache.GlobalDeviceKey)
	if err != nil {
		l.Logger.Errorf("vitals latest: cache read failed, falling through to store: %v", err)
	}
	if snap != nil {
		return toResponse(*snap), nil
	}

	return l.fromStore()
}

func (l *LatestVitalsLogic) fromStore() (*types.LatestVitalsResponse, error) {
	reading, err := l.svcCtx.Store.LatestReadingAny(l.ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &types.LatestVitalsResponse{}, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "vitals latest: store fallback failed", err)
	}

	level, err := l.svcCtx.Store.LatestAlertLevel(l.ctx)
	if err != nil {
		l.Logger.Errorf("vitals latest: alert level lookup failed: %v", err)
	}

	resp := &types.LatestVitalsResponse{
		Timestamp:    reading.ReadingAt.Unix(),
		QualityScore: reading.QualityScore,
		MlAlert:      level,
	}
	if reading.HeartRate != nil {
		resp.HeartRate = *reading.HeartRate
	}
	if reading.SpO2 != nil {
		resp.SpO2 = *reading.SpO2
	}
	if reading.Temperature != nil {
		resp.Temperature = *reading.Temperature
	}
	return resp, nil
}

func toResponse(snap cache.Snapshot) *types.LatestVitalsResponse {
	resp := &types.LatestVitalsResponse{
		Timestamp:    snap.Timestamp.Unix(),
		QualityScore: &snap.QualityScore,
	}
	if snap.HeartRate != nil {
		resp.HeartRate = *snap.HeartRate
	}
	if snap.SpO2 != nil {
		resp.SpO2 = *snap.SpO2
	}
	if snap.Temperature != nil {
		resp.Temperature = *snap.Temperature
	}
	if snap.MlAlert != "" {
		alert := snap.MlAlert
		resp.MlAlert = &alert
	}
	return resp
}
