package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/audit"
	"github.com/medhealth/vitalcore/internal/credential"
	"github.com/medhealth/vitalcore/internal/model"
	"github.com/medhealth/vitalcore/internal/repository"
	"github.com/medhealth/vitalcore/internal/svc"
	"github.com/medhealth/vitalcore/internal/types"
)

// SignupLogic handles POST /auth/signup: validate, normalize, hash, insert,
// issue.
type SignupLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSignupLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SignupLogic {
	return &SignupLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *SignupLogic) Signup(req *types.SignupRequest) (*types.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.BadRequest("invalid email address")
	}
	if len(req.Password) < l.svcCtx.Config.Auth.MinPasswordLength {
		return nil, apperr.BadRequest(fmt.Sprintf("password must be at least %d characters", l.svcCtx.Config.Auth.MinPasswordLength))
	}

	exists, err := l.svcCtx.Store.EmailExists(l.ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "signup: check existing email failed", err)
	}
	if exists {
		return nil, apperr.Conflict("an account with this email already exists")
	}

	hash, salt, err := credential.Hash(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "signup: hash password failed", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         model.RoleViewer,
	}
	if err := l.svcCtx.Store.CreateUser(l.ctx, user); err != nil {
		// Two concurrent signups can both pass the EmailExists check; the
		// unique constraint is the arbiter.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("an account with this email already exists")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "signup: create user failed", err)
	}

	pair, err := l.svcCtx.Tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "signup: issue token failed", err)
	}

	l.svcCtx.Audit.Record(l.ctx, audit.CategoryAuth, "signup", email, "success", "")

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

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
