package sessions

import (
	"time"

	"github.com/jrsteele09/mcp-token-proxy/internal/utils"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
)

// AuthorizationSession is the state captured by the authorization endpoint that the token endpoint
// needs to finish the flow. Only the optional PKCE parameters are read here.
type AuthorizationSession struct {
	ID                  string  // Unique session identifier
	CodeChallenge       *string // PKCE code_challenge, nil when the client did not use PKCE
	CodeChallengeMethod *string // PKCE method, nil means S256 when a challenge is present
}

// HasCodeChallenge returns true if the session was started with PKCE
func (s *AuthorizationSession) HasCodeChallenge() bool {
	return s.CodeChallenge != nil
}

// ChallengeMethod returns the stored PKCE method, defaulting to S256.
func (s *AuthorizationSession) ChallengeMethod() oauth2.CodeMethodType {
	method := utils.Value(s.CodeChallengeMethod)
	if method == "" {
		return oauth2.CodeMethodTypeS256
	}
	return oauth2.CodeMethodType(method)
}

// AuthorizationCode is a single-use credential exchanged for a proxy token pair.
// It moves from unused to used exactly once and is never deleted by the exchange.
type AuthorizationCode struct {
	Code                   string    // Opaque unique code
	AuthorizationSessionID string    // Session that produced the code
	ClientRegistrationID   string    // Registration the code was issued to
	UpstreamTokenID        string    // Upstream credential carried onto every proxy token
	Used                   bool      // Set once by a successful exchange
	ExpiresAt              time.Time // Codes past this instant never yield tokens
}

// IsExpired reports whether the code expired before now
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
