package health

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/svc"
	"github.com/medhealth/vitalcore/internal/types"
)

// HealthLogic serves GET /health: the store's round-trip ping, surfaced
// as a 503 via apperr.Unavailable when the database is unreachable.
type HealthLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHealthLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthLogic {
	return &HealthLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *HealthLogic) Health(now int64) (*types.HealthResponse, error) {
	if !l.svcCtx.Store.Healthy() {
		return nil, apperr.Unavailable("database unreachable")
	}
	return &types.HealthResponse{Status: "ok", Database: "ok", Timestamp: now}, nil
}
