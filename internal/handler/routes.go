// Package handler wires every HTTP route to its handler via a single
// RegisterHandlers entrypoint, one handler package per domain.
package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	authhandler "github.com/medhealth/vitalcore/internal/handler/auth"
	devicehandler "github.com/medhealth/vitalcore/internal/handler/device"
	healthhandler "github.com/medhealth/vitalcore/internal/handler/health"
	vitalshandler "github.com/medhealth/vitalcore/internal/handler/vitals"
	"github.com/medhealth/vitalcore/internal/svc"
)

// RegisterHandlers mounts the full HTTP surface onto server. Bearer-protected
// routes carry svcCtx.Auth; the device-ingestion route carries
// svcCtx.DeviceSignature instead.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{Method: http.MethodGet, Path: "/health", Handler: healthhandler.HealthHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/auth/signup", Handler: authhandler.SignupHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/auth/login", Handler: authhandler.LoginHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/auth/logout", Handler: authhandler.LogoutHandler(svcCtx)},
	})

	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{rest.Middleware(svcCtx.Auth)},
			rest.Route{Method: http.MethodGet, Path: "/api/vitals/latest", Handler: vitalshandler.LatestVitalsHandler(svcCtx)},
			rest.Route{Method: http.MethodGet, Path: "/api/fhir/export", Handler: vitalshandler.FhirExportHandler(svcCtx)},
		),
	)

	// The stream route is long-lived; a zero timeout keeps go-zero's
	// timeout wrapper (which would also hide http.Flusher) off this route.
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{rest.Middleware(svcCtx.Auth)},
			rest.Route{Method: http.MethodGet, Path: "/api/stream/vitals", Handler: vitalshandler.StreamVitalsHandler(svcCtx)},
		),
		rest.WithTimeout(0),
	)

	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{rest.Middleware(svcCtx.DeviceSignature)},
			rest.Route{Method: http.MethodPost, Path: "/api/device/vitals", Handler: devicehandler.IngestVitalsHandler(svcCtx)},
		),
	)
}
