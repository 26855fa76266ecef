package device

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/logic/device"
	"github.com/medhealth/vitalcore/internal/svc"
	"github.com/medhealth/vitalcore/internal/types"
)

func IngestVitalsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DeviceVitalsIngestRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, apperr.BadRequest(err.Error()))
			return
		}

		l := device.NewIngestVitalsLogic(r.Context(), svcCtx)
		resp, err := l.Ingest(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
