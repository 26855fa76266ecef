package auth

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/credential"
	"github.com/medhealth/vitalcore/internal/repository"
	"github.com/medhealth/vitalcore/internal/svc"
	"github.com/medhealth/vitalcore/internal/types"
)

// LoginLogic handles POST /auth/login: lockout check, password verify,
// failure-counter read-modify-write, token issue.
type LoginLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LoginLogic {
	return &LoginLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *LoginLogic) Login(req *types.LoginRequest) (*types.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperr.BadRequest("email and password are required")
	}
	email := normalizeEmail(req.Email)

	user, err := l.svcCtx.Store.GetUserByEmail(l.ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		l.svcCtx.Audit.Record(l.ctx, audit.CategoryAuth, "login", email, "failure", "unknown account")
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "login: lookup user failed", err)
	}
	if !user.IsActive {
		l.svcCtx.Audit.Record(l.ctx, audit.CategoryAuth, "login", email, "failure", "inactive account")
		return nil, apperr.Unauthorized("invalid email or password")
	}

	now := time.Now().UTC()
	if user.Locked(now) {
		l.svcCtx.Audit.Record(l.ctx, audit.CategoryAuth, "login", email, "locked", "")
		return nil, apperr.Locked("account is temporarily locked")
	}

	match, err := credential.Verify(req.Password, user.PasswordHash, user.PasswordSalt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "login: verify password failed", err)
	}
	if !match {
		lockoutFor := time.Duration(l.svcCtx.Config.Auth.LockoutMinutes) * time.Minute
		if ferr := l.svcCtx.Store.RecordLoginFailure(l.ctx, user.ID, l.svcCtx.Config.Auth.LockoutThreshold, lockoutFor); ferr != nil {
			l.Logger.Errorf("login: record failure failed: %v", ferr)
		}
		l.svcCtx.Audit.Record(l.ctx, audit.CategoryAuth, "login", email, "failure", "bad password")
		return nil, apperr.Unauthorized("invalid email or password")
	}

	if err := l.svcCtx.Store.RecordLoginSuccess(l.ctx, user.ID); err != nil {
		l.Logger.Errorf("login: record success failed: %v", err)
	}

	pair, err := l.svcCtx.Tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "login: issue token failed", err)
	}

	l.svcCtx.Audit.Record(l.ctx, audit.CategoryAuth, "login", email, "success", "")

	return &types.AuthResponse{
		Token:        pair.Token,
		RefreshToken: pair.RefreshToken,
		User: types.AuthUser{
			ID:    user.ID.String(),
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}
