// Package token implements the bearer-token service: issue, validate, and
// a server-side revocation shadow keyed on each token's jti.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medhealth/vitalcore/internal/model"
)

// Claims is the payload carried by every issued bearer token.
type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// RevocationStore is the subset of the record store the token service needs
// to check and record revocations.
type RevocationStore interface {
	RevokeToken(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Service issues and validates HS256 bearer tokens and fronts the
// revocation store.
type Service struct {
	secret     []byte
	expiry     time.Duration
	refreshTTL time.Duration
	revocation RevocationStore
}

func NewService(secret string, expiry, refreshTTL time.Duration, revocation RevocationStore) *Service {
	return &Service{secret: []byte(secret), expiry: expiry, refreshTTL: refreshTTL, revocation: revocation}
}

// Pair is the access/refresh token pair returned to clients.
type Pair struct {
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
}

// Issue produces a signed bearer token carrying subject=email, user_id,
// role, issued-at, and a fresh jti. The refresh token here is a second
// token with the same subject, user_id and role, its own jti, and a longer
// lifetime; differentiated
// semantics are an open extension point, not a core invariant.
func (s *Service) Issue(userID uuid.UUID, email string, role model.Role) (Pair, error) {
	now := time.Now().UTC()

	access, err := s.sign(userID, email, role, now, s.expiry)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(userID, email, role, now, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Token: access, RefreshToken: refresh, ExpiresAt: now.Add(s.expiry)}, nil
}

func (s *Service) sign(userID uuid.UUID, email string, role model.Role, now time.Time, ttl time.Duration) (string, error) {
	jti, err := newJTI()
	if err != nil {
		return "", err
	}
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

func newJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Validate verifies signature and expiry only; it does not consult the
// revocation set.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsRevoked reports whether the claims' jti has been revoked.
func (s *Service) IsRevoked(ctx context.Context, claims *Claims) (bool, error) {
	return s.revocation.IsTokenRevoked(ctx, claims.ID)
}

// Revoke inserts (token_id, user_id, expiry) into the revocation set,
// idempotent on token id.
func (s *Service) Revoke(ctx context.Context, claims *Claims) error {
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	} else {
		expiresAt = time.Now().UTC().Add(s.expiry)
	}
	return s.revocation.RevokeToken(ctx, claims.ID, claims.UserID, expiresAt)
}

// ExtractBearer pulls the token out of an Authorization header. Any prefix
// other than "Bearer " or a missing header fails as missing-token.
func ExtractBearer(header string) (string, error) {
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	tok := strings.TrimPrefix(header, prefix)
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}
