package clients_test

import (
	"testing"

	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestRegistrationIsConfidential(t *testing.T) {
	require.True(t, (&clients.Registration{ClientSecret: "s3cret"}).IsConfidential())
	require.False(t, (&clients.Registration{}).IsConfidential())
}

func TestVerifySecret(t *testing.T) {
	hashed, err := clients.HashSecret("hashed-secret")
	require.NoError(t, err)

	tests := []struct {
		name        string
		stored      string
		presented   string
		expectedErr error
	}{
		{"public client without secret", "", "", nil},
		{"public client ignores presented secret", "", "anything", nil},
		{"confidential client correct secret", "s3cret", "s3cret", nil},
		{"confidential client wrong secret", "s3cret", "wrong", errors.ErrInvalidClientSecret},
		{"confidential client missing secret", "s3cret", "", errors.ErrMissingClientSecret},
		{"bcrypt secret correct", hashed, "hashed-secret", nil},
		{"bcrypt secret wrong", hashed, "nope", errors.ErrInvalidClientSecret},
		{"bcrypt hash presented verbatim", hashed, hashed, errors.ErrInvalidClientSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registration := &clients.Registration{ID: "reg-1", ClientID: "client-1", ClientSecret: tt.stored}
			err := registration.VerifySecret(tt.presented)
			if tt.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}
