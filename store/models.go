package store

import (
	"time"

	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/sessions"
	"github.com/jrsteele09/mcp-token-proxy/token"
)

// ClientRegistration is the persisted form of clients.Registration
type ClientRegistration struct {
	ID           string  `gorm:"primaryKey;size:191"`
	ClientID     string  `gorm:"uniqueIndex;size:191;not null"`
	ClientSecret *string // nil for public clients
}

func (ClientRegistration) TableName() string {
	return "mcp_client_registrations"
}

// AuthorizationSession is the persisted form of sessions.AuthorizationSession
type AuthorizationSession struct {
	ID                  string `gorm:"primaryKey;size:191"`
	CodeChallenge       *string
	CodeChallengeMethod *string `gorm:"size:16"`
}

func (AuthorizationSession) TableName() string {
	return "authorization_sessions"
}

// AuthorizationCode is the persisted form of sessions.AuthorizationCode
type AuthorizationCode struct {
	Code                   string `gorm:"primaryKey;size:191"`
	AuthorizationSessionID string `gorm:"index;size:191;not null"`
	ClientRegistrationID   string `gorm:"index;size:191;not null"`
	UpstreamTokenID        string `gorm:"size:191;not null"`
	Used                   bool   `gorm:"not null;default:false"`
	ExpiresAt              int64  `gorm:"index;not null"` // epoch milliseconds
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}

// ProxyToken is the persisted form of token.ProxyToken
type ProxyToken struct {
	ID                   string `gorm:"primaryKey;size:191"`
	ClientRegistrationID string `gorm:"index;size:191;not null"`
	UpstreamTokenID      string `gorm:"index;size:191;not null"`
	AccessToken          string `gorm:"uniqueIndex;size:191;not null"`
	RefreshToken         string `gorm:"uniqueIndex;size:191;not null"`
	ExpiresAt            int64  `gorm:"index;not null"` // epoch milliseconds
}

func (ProxyToken) TableName() string {
	return "proxy_tokens"
}

// models lists every table owned by the proxy, in migration order
func models() []any {
	return []any{
		&ClientRegistration{},
		&AuthorizationSession{},
		&AuthorizationCode{},
		&ProxyToken{},
	}
}

func toEpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func newClientRegistration(r *clients.Registration) *ClientRegistration {
	m := &ClientRegistration{ID: r.ID, ClientID: r.ClientID}
	if r.ClientSecret != "" {
		secret := r.ClientSecret
		m.ClientSecret = &secret
	}
	return m
}

func (m *ClientRegistration) toDomain() *clients.Registration {
	r := &clients.Registration{ID: m.ID, ClientID: m.ClientID}
	if m.ClientSecret != nil {
		r.ClientSecret = *m.ClientSecret
	}
	return r
}

func newAuthorizationSession(s *sessions.AuthorizationSession) *AuthorizationSession {
	return &AuthorizationSession{
		ID:                  s.ID,
		CodeChallenge:       s.CodeChallenge,
		CodeChallengeMethod: s.CodeChallengeMethod,
	}
}

func (m *AuthorizationSession) toDomain() *sessions.AuthorizationSession {
	return &sessions.AuthorizationSession{
		ID:                  m.ID,
		CodeChallenge:       m.CodeChallenge,
		CodeChallengeMethod: m.CodeChallengeMethod,
	}
}

func newAuthorizationCode(c *sessions.AuthorizationCode) *AuthorizationCode {
	return &AuthorizationCode{
		Code:                   c.Code,
		AuthorizationSessionID: c.AuthorizationSessionID,
		ClientRegistrationID:   c.ClientRegistrationID,
		UpstreamTokenID:        c.UpstreamTokenID,
		Used:                   c.Used,
		ExpiresAt:              toEpochMillis(c.ExpiresAt),
	}
}

func (m *AuthorizationCode) toDomain() *sessions.AuthorizationCode {
	return &sessions.AuthorizationCode{
		Code:                   m.Code,
		AuthorizationSessionID: m.AuthorizationSessionID,
		ClientRegistrationID:   m.ClientRegistrationID,
		UpstreamTokenID:        m.UpstreamTokenID,
		Used:                   m.Used,
		ExpiresAt:              fromEpochMillis(m.ExpiresAt),
	}
}

func newProxyToken(t *token.ProxyToken) *ProxyToken {
	return &ProxyToken{
		ID:                   t.ID,
		ClientRegistrationID: t.ClientRegistrationID,
		UpstreamTokenID:      t.UpstreamTokenID,
		AccessToken:          t.AccessToken,
		RefreshToken:         t.RefreshToken,
		ExpiresAt:            toEpochMillis(t.ExpiresAt),
	}
}

func (m *ProxyToken) toDomain() *token.ProxyToken {
	return &token.ProxyToken{
		ID:                   m.ID,
		ClientRegistrationID: m.ClientRegistrationID,
		UpstreamTokenID:      m.UpstreamTokenID,
		AccessToken:          m.AccessToken,
		RefreshToken:         m.RefreshToken,
		ExpiresAt:            fromEpochMillis(m.ExpiresAt),
	}
}
