package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/model"
	"github.com/medhealth/vitalcore/internal/token"
)

type fakeRevocationStore struct {
	revoked map[string]time.Time
}

func (f *fakeRevocationStore) RevokeToken(_ context.Context, tokenID string, _ uuid.UUID, expiresAt time.Time) error {
	f.revoked[tokenID] = expiresAt
	return nil
}

func (f *fakeRevocationStore) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	exp, ok := f.revoked[tokenID]
	return ok && exp.After(time.Now()), nil
}

func TestAuthMiddleware(t *testing.T) {
	httpx.SetErrorHandler(apperr.Handler)

	store := &fakeRevocationStore{revoked: map[string]time.Time{}}
	svc := token.NewService("test-secret", time.Hour, 30*24*time.Hour, store)
	userID := uuid.New()

	pair, err := svc.Issue(userID, "nurse@example.org", model.RoleViewer)
	require.NoError(t, err)

	var gotUserID uuid.UUID
	handler := Auth(svc)(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/api/vitals/latest", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token passes and injects identity", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/vitals/latest", nil)
		r.Header.Set("Authorization", "Bearer "+pair.Token)
		w := httptest.NewRecorder()
		handler(w, r)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, userID, gotUserID)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		claims, err := svc.Validate(pair.Token)
		require.NoError(t, err)
		require.NoError(t, svc.Revoke(context.Background(), claims))

		r := httptest.NewRequest(http.MethodGet, "/api/vitals/latest", nil)
		r.Header.Set("Authorization", "Bearer "+pair.Token)
		w := httptest.NewRecorder()
		handler(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
