package vitals

import (
	"context"
	"encoding/json"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/fhir"
	"github.com/medhealth/vitalcore/internal/middleware"
	"github.com/medhealth/vitalcore/internal/svc"
)

// FhirExportLogic serves GET /api/fhir/export: concatenates the stored
// Observation entries from up to limit most recent readings into one
// collection Bundle.
type FhirExportLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewFhirExportLogic(ctx context.Context, svcCtx *svc.ServiceContext) *FhirExportLogic {
	return &FhirExportLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *FhirExportLogic) Export(limit int) (*fhir.Bundle, error) {
	limit = clampLimit(limit, l.svcCtx.Config.FHIR.DefaultPageLimit, l.svcCtx.Config.FHIR.MaxPageLimit)

	userID, _ := middleware.UserIDFromContext(l.ctx)
	l.svcCtx.Audit.Record(l.ctx, audit.CategoryAccess, "fhir_export", userID.String(), "success", "")

	payloads, err := l.svcCtx.Store.RecentFhirPayloads(l.ctx, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "fhir export: load observations failed", err)
	}

	observations := make([]fhir.Observation, 0, len(payloads))
	for _, payload := range payloads {
		var obs fhir.Observation
		if err := json.Unmarshal([]byte(payload), &obs); err != nil {
			l.Logger.Errorf("fhir export: skipping unparseable observation: %v", err)
			continue
		}
		observations = append(observations, obs)
	}

	bundle := fhir.WrapBundle(observations, l.svcCtx.Config.FHIR.OrganizationID)
	return &bundle, nil
}

// clampLimit enforces limit's [1, max] bound, defaulting to def when
// limit is zero or negative.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
