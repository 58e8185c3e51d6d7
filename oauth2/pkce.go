package oauth2

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// VerifyCodeChallenge checks a PKCE code_verifier against the challenge stored with the authorization session.
// S256 compares BASE64URL(SHA256(verifier)) to the challenge, every other method compares the verifier directly.
// Both comparisons run in constant time.
func VerifyCodeChallenge(verifier, challenge string, method CodeMethodType) bool {
	computed := verifier
	if method == CodeMethodTypeS256 {
		computed = S256Challenge(verifier)
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// S256Challenge derives the S256 code_challenge for a verifier.
func S256Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
