package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{BadRequest("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Locked("x"), http.StatusForbidden},
		{Conflict("x"), http.StatusConflict},
		{Unavailable("x"), http.StatusServiceUnavailable},
		{Internal("x"), http.StatusInternalServerError},
		{errors.New("untyped"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, StatusCode(tt.err))
	}
}

func TestHandlerEmitsErrorEnvelope(t *testing.T) {
	status, body := Handler(Conflict("an account with this email already exists"))
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, Body{Error: "an account with this email already exists"}, body)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(KindInternal, "signup: create user failed", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "signup: create user failed", err.Error())
}
