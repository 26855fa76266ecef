package auth

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/svc"
	"github.com/medhealth/vitalcore/internal/token"
	"github.com/medhealth/vitalcore/internal/types"
)

// LogoutLogic handles POST /auth/logout: revoke the bearer token's jti.
// Returns success even if the token was already revoked.
type LogoutLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLogoutLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LogoutLogic {
	return &LogoutLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *LogoutLogic) Logout(authHeader string) (*types.LogoutResponse, error) {
	raw, err := token.ExtractBearer(authHeader)
	if err != nil {
		return nil, apperr.Unauthorized("missing or malformed authorization header")
	}

	claims, err := l.svcCtx.Tokens.Validate(raw)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}

	if err := l.svcCtx.Tokens.Revoke(l.ctx, claims); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "logout: revoke token failed", err)
	}

	l.svcCtx.Audit.Record(l.ctx, audit.CategoryAuth, "logout", claims.Subject, "success", "")
	return &types.LogoutResponse{Status: "logged_out"}, nil
}
