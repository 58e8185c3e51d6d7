package oauth2

// TokenResponse represents the response from an OAuth2 token request.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749.
// Returned from the /oauth/token endpoint for both supported grant types.
type TokenResponse struct {
	// AccessToken is the opaque proxy access token.
	// Example: "mcp_at_Zx3Qk..."
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token (always "Bearer").
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: 3600
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is an opaque token used to obtain a new pair.
	// Example: "mcp_rt_p0Vd1..."
	// Security: Single use, rotates on each refresh
	RefreshToken string `json:"refresh_token"`

	// Scope indicates the access token's granted permissions.
	Scope string `json:"scope"`
}

// IntrospectionResponse is the RFC 7662 introspection document.
// Only Active is set for tokens that are unknown, expired, or owned by another client.
type IntrospectionResponse struct {
	Active    bool   `json:"active"`
	ClientID  string `json:"client_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
}
