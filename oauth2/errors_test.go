package oauth2_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructorsCarryStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, oauth2.ErrInvalidRequest("x").Status)
	require.Equal(t, http.StatusBadRequest, oauth2.ErrInvalidGrant("x").Status)
	require.Equal(t, http.StatusUnauthorized, oauth2.ErrInvalidClient("x").Status)
	require.Equal(t, http.StatusBadRequest, oauth2.ErrUnsupportedGrantType("x").Status)
	require.Equal(t, http.StatusInternalServerError, oauth2.ErrServerError("x").Status)
	require.Equal(t, http.StatusTooManyRequests, oauth2.ErrRateLimited("x").Status)
}

func TestAsError(t *testing.T) {
	t.Run("wrapped oauth error is unwrapped", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", oauth2.ErrInvalidGrant("Invalid refresh token"))
		oauthErr := oauth2.AsError(wrapped)
		require.Equal(t, oauth2.ErrorCodeInvalidGrant, oauthErr.Code)
		require.Equal(t, "Invalid refresh token", oauthErr.Description)
	})

	t.Run("plain error becomes server_error without leaking", func(t *testing.T) {
		oauthErr := oauth2.AsError(errors.New("connection refused to 10.0.0.4"))
		require.Equal(t, oauth2.ErrorCodeServerError, oauthErr.Code)
		require.Equal(t, http.StatusInternalServerError, oauthErr.Status)
		require.NotContains(t, oauthErr.Description, "10.0.0.4")
	})
}
