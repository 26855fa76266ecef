package vitals

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/medhealth/vitalcore/internal/logic/vitals"
	"github.com/medhealth/vitalcore/internal/svc"
)

func LatestVitalsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := vitals.NewLatestVitalsLogic(r.Context(), svcCtx)
		resp, err := l.Latest()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
