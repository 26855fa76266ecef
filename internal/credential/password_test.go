package credential

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyRoundTrip(t *testing.T) {
	hash, salt, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	ok, err := Verify("correct horse battery staple", hash, salt)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	hash, salt, err := Hash("correct horse battery staple")
	require.NoError(t, err)

	ok, err := Verify("wrong password", hash, salt)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashProducesDistinctSaltsPerCall(t *testing.T) {
	_, saltA, err := Hash("same password")
	require.NoError(t, err)
	_, saltB, err := Hash("same password")
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	_, _, err := Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}
