package oauth2_test

import (
	"testing"

	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/stretchr/testify/require"
)

const (
	rfcCodeVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcCodeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestS256Challenge(t *testing.T) {
	require.Equal(t, rfcCodeChallenge, oauth2.S256Challenge(rfcCodeVerifier))
}

func TestVerifyCodeChallenge(t *testing.T) {
	tests := []struct {
		name      string
		verifier  string
		challenge string
		method    oauth2.CodeMethodType
		expected  bool
	}{
		{"S256 matching verifier", rfcCodeVerifier, rfcCodeChallenge, oauth2.CodeMethodTypeS256, true},
		{"S256 wrong verifier", rfcCodeVerifier + "x", rfcCodeChallenge, oauth2.CodeMethodTypeS256, false},
		{"S256 verifier equal to challenge", rfcCodeChallenge, rfcCodeChallenge, oauth2.CodeMethodTypeS256, false},
		{"plain matching verifier", rfcCodeVerifier, rfcCodeVerifier, oauth2.CodeMethodTypePlain, true},
		{"plain wrong verifier", rfcCodeVerifier, rfcCodeChallenge, oauth2.CodeMethodTypePlain, false},
		{"unknown method compares directly", rfcCodeVerifier, rfcCodeVerifier, oauth2.CodeMethodType("S512"), true},
		{"empty verifier", "", rfcCodeChallenge, oauth2.CodeMethodTypeS256, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, oauth2.VerifyCodeChallenge(tt.verifier, tt.challenge, tt.method))
		})
	}
}

func TestVerifyCodeChallengeIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		require.True(t, oauth2.VerifyCodeChallenge(rfcCodeVerifier, rfcCodeChallenge, oauth2.CodeMethodTypeS256))
	}
}
