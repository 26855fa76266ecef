package vitals

import (
	"net/http"
	"strconv"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/medhealth/vitalcore/internal/logic/vitals"
	"github.com/medhealth/vitalcore/internal/svc"
)

func FhirExportHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		l := vitals.NewFhirExportLogic(r.Context(), svcCtx)
		bundle, err := l.Export(limit)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		w.Header().Set("Content-Type", "application/fhir+json")
		httpx.OkJsonCtx(r.Context(), w, bundle)
	}
}
