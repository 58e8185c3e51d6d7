package token

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
)

const (
	AccessTokenPrefix  = "mcp_at_"
	RefreshTokenPrefix = "mcp_rt_"

	// DefaultLifetime is the fixed lifetime of every issued pair.
	DefaultLifetime = 3600 * time.Second

	tokenByteLength = 32 // 256 bits
)

// Issuer mints opaque proxy token pairs.
type Issuer struct {
	lifetime time.Duration
	nowTime  func() time.Time
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// WithLifetime overrides DefaultLifetime
func WithLifetime(lifetime time.Duration) IssuerOption {
	return func(i *Issuer) {
		if lifetime > 0 {
			i.lifetime = lifetime
		}
	}
}

func NewIssuer(options ...IssuerOption) *Issuer {
	issuer := &Issuer{
		lifetime: DefaultLifetime,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(issuer)
	}
	return issuer
}

// Lifetime returns the lifetime applied to issued pairs
func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue creates a new ProxyToken for the client registration and upstream credential.
// The caller persists it.
func (i *Issuer) Issue(clientRegistrationID, upstreamTokenID string) (*ProxyToken, error) {
	accessToken, err := generateToken(AccessTokenPrefix)
	if err != nil {
		return nil, errors.Wrapf(err, "[Issuer.Issue] failed to generate access token")
	}
	refreshToken, err := generateToken(RefreshTokenPrefix)
	if err != nil {
		return nil, errors.Wrapf(err, "[Issuer.Issue] failed to generate refresh token")
	}

	return &ProxyToken{
		ID:                   uuid.New().String(),
		ClientRegistrationID: clientRegistrationID,
		UpstreamTokenID:      upstreamTokenID,
		AccessToken:          accessToken,
		RefreshToken:         refreshToken,
		ExpiresAt:            i.nowTime().Add(i.lifetime),
	}, nil
}

func generateToken(prefix string) (string, error) {
	tokenBytes := make([]byte, tokenByteLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return prefix + base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}
