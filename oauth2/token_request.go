package oauth2

// TokenRequest holds the normalized parameters of a token endpoint request.
// Form and JSON bodies, plus any HTTP Basic credentials, are merged into this single shape
// before validation.
type TokenRequest struct {
	// GrantType selects the exchange path.
	// Required: Yes
	// Allowed: "authorization_code", "refresh_token"
	GrantType GrantType `json:"grant_type" validate:"required,oneof=authorization_code refresh_token"`

	// Code is the authorization code received from the authorization endpoint.
	// Required: Yes (only for authorization_code grant, checked by the grant processor)
	Code string `json:"code,omitempty"`

	// RedirectURI is accepted for RFC 6749 compatibility.
	// Validation: must be an absolute URL when present
	RedirectURI string `json:"redirect_uri,omitempty" validate:"omitempty,url"`

	// RefreshToken is the previously issued proxy refresh token.
	// Required: Yes (only for refresh_token grant, checked by the grant processor)
	RefreshToken string `json:"refresh_token,omitempty"`

	// ClientID is the public identifier of the client registration.
	// Falls back to the HTTP Basic username when the body omits it.
	ClientID string `json:"client_id,omitempty"`

	// ClientSecret is the secret credential for confidential clients.
	// Falls back to the HTTP Basic password when the body omits it.
	// Security: Never log or expose this value
	ClientSecret string `json:"client_secret,omitempty"`

	// CodeVerifier is the PKCE code verifier that matches the session's code_challenge.
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	// Validation: 43-128 characters from [A-Za-z0-9-._~]
	CodeVerifier string `json:"code_verifier,omitempty" validate:"omitempty,min=43,max=128,pkce_charset"`
}

// ClientRequest holds the normalized parameters of a revocation or introspection request.
type ClientRequest struct {
	Token         string        `json:"token" validate:"required"`
	TokenTypeHint TokenTypeHint `json:"token_type_hint,omitempty" validate:"omitempty,oneof=access_token refresh_token"`
	ClientID      string        `json:"client_id,omitempty" validate:"required"`
	ClientSecret  string        `json:"client_secret,omitempty"`
}
