package oauth2

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
// Used to bind an authorization code to the client that requested it.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Server validates: BASE64URL(SHA256(provided code_verifier)) == stored code_challenge
	// Default: used whenever a session carries a challenge but no method
	CodeMethodTypeS256 CodeMethodType = "S256"

	// CodeMethodTypePlain means no hashing, code_verifier is compared directly.
	// Any stored method other than S256 is treated this way.
	CodeMethodTypePlain CodeMethodType = "plain"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for a proxy token pair.
	// Token request includes: code, client_id, client_secret (confidential clients), code_verifier (PKCE)
	// Returns: access_token, refresh_token
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for a rotated proxy token pair.
	// Token request includes: refresh_token, client_id, client_secret (confidential clients)
	// Returns: new access_token and refresh_token; the presented refresh_token stops working
	RefreshTokenGrant GrantType = "refresh_token"
)

// TokenTypeHint is the optional hint sent to the revocation and introspection endpoints (RFC 7009).
type TokenTypeHint string

const (
	AccessTokenHint  TokenTypeHint = "access_token"
	RefreshTokenHint TokenTypeHint = "refresh_token"
)

const (
	// BearerTokenType is the only token type issued by the proxy.
	BearerTokenType = "Bearer"

	// DefaultScope is reported on every issued token pair.
	DefaultScope = "openid profile email"
)
