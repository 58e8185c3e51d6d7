package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/auth"
	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/internal/utils"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/jrsteele09/mcp-token-proxy/sessions"
	"github.com/jrsteele09/mcp-token-proxy/store"
	"github.com/jrsteele09/mcp-token-proxy/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testStore holds a migrated sqlite database and the repos on top of it
type testStore struct {
	db       *gorm.DB
	clients  *store.ClientRepo
	sessions *store.SessionRepo
	tokens   *store.TokenRepo
}

func setupTestStore(t *testing.T) *testStore {
	t.Helper()

	db, err := store.Open(store.Config{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "data", "proxy.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() { _ = store.Close(db) })

	return &testStore{
		db:       db,
		clients:  store.NewClientRepo(db),
		sessions: store.NewSessionRepo(db),
		tokens:   store.NewTokenRepo(db),
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := store.Open(store.Config{Driver: "oracle", DSN: "x"}, zerolog.Nop())
	require.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestMigrateIsRepeatable(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, store.Migrate(s.db))

	for _, table := range []string{"mcp_client_registrations", "authorization_sessions", "authorization_codes", "proxy_tokens"} {
		require.True(t, s.db.Migrator().HasTable(table), table)
	}
}

func TestClientRepo(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.clients.Save(ctx, &clients.Registration{ID: "reg-1", ClientID: "client-1", ClientSecret: "secret"}))
	require.NoError(t, s.clients.Save(ctx, &clients.Registration{ID: "reg-2", ClientID: "client-2"}))

	confidential, err := s.clients.Get(ctx, "reg-1", "client-1")
	require.NoError(t, err)
	require.True(t, confidential.IsConfidential())
	require.Equal(t, "secret", confidential.ClientSecret)

	public, err := s.clients.GetByClientID(ctx, "client-2")
	require.NoError(t, err)
	require.False(t, public.IsConfidential())

	_, err = s.clients.Get(ctx, "reg-1", "client-2")
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.clients.GetByClientID(ctx, "missing")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSessionRepo(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	expires := time.Date(2030, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	require.NoError(t, s.sessions.SaveSession(ctx, &sessions.AuthorizationSession{ID: "s1", CodeChallenge: utils.Ptr("challenge")}))
	require.NoError(t, s.sessions.SaveCode(ctx, &sessions.AuthorizationCode{
		Code:                   "code-1",
		AuthorizationSessionID: "s1",
		ClientRegistrationID:   "reg-1",
		UpstreamTokenID:        "up-1",
		ExpiresAt:              expires,
	}))

	session, err := s.sessions.GetSession(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "challenge", utils.Value(session.CodeChallenge))
	require.Nil(t, session.CodeChallengeMethod)
	require.Equal(t, oauth2.CodeMethodTypeS256, session.ChallengeMethod())

	code, err := s.sessions.GetUnusedCode(ctx, "code-1")
	require.NoError(t, err)
	require.False(t, code.Used)
	require.Equal(t, "up-1", code.UpstreamTokenID)
	require.True(t, expires.Equal(code.ExpiresAt))

	require.NoError(t, s.sessions.MarkCodeUsed(ctx, "code-1"))
	require.ErrorIs(t, s.sessions.MarkCodeUsed(ctx, "code-1"), errors.ErrCodeAlreadyUsed)
	require.ErrorIs(t, s.sessions.MarkCodeUsed(ctx, "unknown"), errors.ErrCodeAlreadyUsed)

	_, err = s.sessions.GetUnusedCode(ctx, "code-1")
	require.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.sessions.GetSession(ctx, "missing")
	require.ErrorIs(t, err, errors.ErrNotFound)

	deleted, err := s.sessions.DeleteExpiredCodes(ctx, expires.Add(time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}

func TestTokenRepoRotate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	issuer := token.NewIssuer()

	original, err := issuer.Issue("reg-1", "up-1")
	require.NoError(t, err)
	require.NoError(t, s.tokens.Insert(ctx, original))

	byAccess, err := s.tokens.GetByAccessToken(ctx, original.AccessToken)
	require.NoError(t, err)
	require.Equal(t, original.ID, byAccess.ID)
	require.Equal(t, original.ExpiresAt.UnixMilli(), byAccess.ExpiresAt.UnixMilli())

	replacement, err := issuer.Issue("reg-1", "up-1")
	require.NoError(t, err)
	require.NoError(t, s.tokens.Rotate(ctx, original.ID, replacement))

	_, err = s.tokens.GetByRefreshToken(ctx, original.RefreshToken)
	require.ErrorIs(t, err, errors.ErrNotFound)

	stored, err := s.tokens.GetByRefreshToken(ctx, replacement.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "up-1", stored.UpstreamTokenID)

	// second rotation of the same row loses and inserts nothing
	loser, err := issuer.Issue("reg-1", "up-1")
	require.NoError(t, err)
	require.ErrorIs(t, s.tokens.Rotate(ctx, original.ID, loser), errors.ErrNotFound)
	_, err = s.tokens.GetByAccessToken(ctx, loser.AccessToken)
	require.ErrorIs(t, err, errors.ErrNotFound)

	require.NoError(t, s.tokens.Delete(ctx, replacement.ID))
	require.ErrorIs(t, s.tokens.Delete(ctx, replacement.ID), errors.ErrNotFound)
}

func TestTokenRepoDeleteExpired(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.tokens.Insert(ctx, &token.ProxyToken{ID: "old", AccessToken: "mcp_at_old", RefreshToken: "mcp_rt_old", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, s.tokens.Insert(ctx, &token.ProxyToken{ID: "new", AccessToken: "mcp_at_new", RefreshToken: "mcp_rt_new", ExpiresAt: now.Add(time.Hour)}))

	deleted, err := s.tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}

func TestTokenServiceOverStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	service, err := auth.NewTokenService(auth.Repos{Clients: s.clients, Sessions: s.sessions, Tokens: s.tokens})
	require.NoError(t, err)

	require.NoError(t, s.clients.Save(ctx, &clients.Registration{ID: "reg-1", ClientID: "client-1"}))
	require.NoError(t, s.sessions.SaveSession(ctx, &sessions.AuthorizationSession{ID: "s1", CodeChallenge: utils.Ptr(oauth2.S256Challenge("verifier-verifier-verifier-verifier-verifier"))}))
	require.NoError(t, s.sessions.SaveCode(ctx, &sessions.AuthorizationCode{
		Code:                   "code-1",
		AuthorizationSessionID: "s1",
		ClientRegistrationID:   "reg-1",
		UpstreamTokenID:        "up-1",
		ExpiresAt:              time.Now().Add(time.Minute),
	}))

	issued, err := service.Exchange(ctx, oauth2.TokenRequest{
		GrantType:    oauth2.AuthorizationCodeGrant,
		Code:         "code-1",
		ClientID:     "client-1",
		CodeVerifier: "verifier-verifier-verifier-verifier-verifier",
	})
	require.NoError(t, err)

	_, err = service.Exchange(ctx, oauth2.TokenRequest{GrantType: oauth2.AuthorizationCodeGrant, Code: "code-1", ClientID: "client-1", CodeVerifier: "verifier-verifier-verifier-verifier-verifier"})
	require.Equal(t, oauth2.ErrorCodeInvalidGrant, oauth2.AsError(err).Code)

	refreshed, err := service.Exchange(ctx, oauth2.TokenRequest{GrantType: oauth2.RefreshTokenGrant, RefreshToken: issued.RefreshToken, ClientID: "client-1"})
	require.NoError(t, err)
	require.NotEqual(t, issued.RefreshToken, refreshed.RefreshToken)

	_, err = service.Exchange(ctx, oauth2.TokenRequest{GrantType: oauth2.RefreshTokenGrant, RefreshToken: issued.RefreshToken, ClientID: "client-1"})
	require.Equal(t, oauth2.ErrorCodeInvalidGrant, oauth2.AsError(err).Code)
}
