package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mealbook/mealbook/internal/common"
)

var testSecret = []byte("test-secret")

func TestGenerateToken_RoundTrip(t *testing.T) {
	tok, err := GenerateToken("u-1", testSecret, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, err := GetUserIDFromToken(tok, testSecret)
	require.NoError(t, err)
	require.Equal(t, "u-1", userID)
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	tok, err := GenerateToken("u-1", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(tok, testSecret)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestGetUserIDFromToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("u-1", testSecret, time.Minute)
	require.NoError(t, err)

	_, err = GetUserIDFromToken(tok, []byte("other-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestGetUserIDFromToken_Garbage(t *testing.T) {
	_, err := GetUserIDFromToken("not.a.token", testSecret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
