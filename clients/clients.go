package clients

import (
	"crypto/subtle"
	"strings"

	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// Registration is an MCP client registered with the proxy.
// A registration with a secret is confidential, one without is public.
type Registration struct {
	ID           string `json:"id"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"-"` // plaintext or a bcrypt hash
}

// IsConfidential returns true if the client holds a secret
func (r *Registration) IsConfidential() bool {
	return r.ClientSecret != ""
}

// VerifySecret checks the presented secret for a confidential client.
// Public clients always pass. Stored bcrypt hashes are compared with bcrypt, anything else in constant time.
func (r *Registration) VerifySecret(presented string) error {
	if !r.IsConfidential() {
		return nil
	}
	if presented == "" {
		return errors.ErrMissingClientSecret
	}
	if isBcryptHash(r.ClientSecret) {
		if bcrypt.CompareHashAndPassword([]byte(r.ClientSecret), []byte(presented)) != nil {
			return errors.ErrInvalidClientSecret
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(r.ClientSecret), []byte(presented)) != 1 {
		return errors.ErrInvalidClientSecret
	}
	return nil
}

// HashSecret hashes a client secret for storage
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrapf(err, "[HashSecret] failed to hash client secret")
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
