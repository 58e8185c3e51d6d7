package token

import "time"

// ProxyToken is an access/refresh pair issued by the proxy in place of an upstream credential.
// A refresh replaces the whole row; nothing is updated in place.
type ProxyToken struct {
	ID                   string
	ClientRegistrationID string
	UpstreamTokenID      string // copied unchanged across every refresh
	AccessToken          string
	RefreshToken         string
	ExpiresAt            time.Time
}

// IsExpired reports whether the token expired before now
func (t *ProxyToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// ExpiresIn returns the remaining lifetime in whole seconds, rounded to the nearest second.
func (t *ProxyToken) ExpiresIn(now time.Time) int {
	remaining := t.ExpiresAt.Sub(now).Round(time.Second)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}
