package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/auth"
	"github.com/jrsteele09/mcp-token-proxy/clients"
	fakeclientrepo "github.com/jrsteele09/mcp-token-proxy/clients/fakerepo"
	"github.com/jrsteele09/mcp-token-proxy/instrumentation"
	"github.com/jrsteele09/mcp-token-proxy/internal/config"
	"github.com/jrsteele09/mcp-token-proxy/internal/utils"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/jrsteele09/mcp-token-proxy/server"
	"github.com/jrsteele09/mcp-token-proxy/sessions"
	fakesessionrepo "github.com/jrsteele09/mcp-token-proxy/sessions/repofakes"
	tokenfakerepo "github.com/jrsteele09/mcp-token-proxy/token/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testRegistrationID = "reg-1"
	testClientID       = "test-client-1"
	testClientSecret   = "test-secret-1"
	testPublicRegID    = "reg-public"
	testPublicClientID = "public-client"
	testUpstreamID     = "upstream-1"
	testCodeChallenge  = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	testCodeVerifier   = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

// testFixture holds a server backed by in-memory repositories
type testFixture struct {
	clientRepo  *fakeclientrepo.FakeClientRepo
	sessionRepo *fakesessionrepo.FakeSessionRepo
	tokenRepo   *tokenfakerepo.FakeTokenRepo
	inst        *instrumentation.Instrumentation
	server      *server.Server
}

type fixtureOptions struct {
	env     map[string]string
	metrics bool
	health  server.HealthCheck
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	return setupTestFixtureWith(t, fixtureOptions{})
}

func setupTestFixtureWith(t *testing.T, opts fixtureOptions) *testFixture {
	t.Helper()

	t.Setenv("ENV", "TEST")
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("BASE_URL", "https://proxy.example.com")
	for k, v := range opts.env {
		t.Setenv(k, v)
	}

	f := &testFixture{
		clientRepo:  fakeclientrepo.NewFakeClientRepo(),
		sessionRepo: fakesessionrepo.NewFakeSessionRepo(),
		tokenRepo:   tokenfakerepo.NewFakeTokensRepo(),
		inst:        instrumentation.NewDisabled(),
	}
	if opts.metrics {
		inst, err := instrumentation.New(instrumentation.Config{ServiceName: "proxy-test", Enabled: true})
		require.NoError(t, err)
		f.inst = inst
	}

	tokenService, err := auth.NewTokenService(auth.Repos{
		Clients:  f.clientRepo,
		Sessions: f.sessionRepo,
		Tokens:   f.tokenRepo,
	}, auth.WithInstrumentation(f.inst))
	require.NoError(t, err)

	serverOptions := []server.ServerOption{server.WithInstrumentation(f.inst)}
	if opts.health != nil {
		serverOptions = append(serverOptions, server.WithHealthCheck(opts.health))
	}
	s, err := server.New(config.New(), tokenService, serverOptions...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	f.server = s

	f.createClient(t, testRegistrationID, testClientID, testClientSecret)
	f.createClient(t, testPublicRegID, testPublicClientID, "")
	return f
}

func (f *testFixture) createClient(t *testing.T, id, clientID, secret string) {
	t.Helper()
	require.NoError(t, f.clientRepo.Save(context.Background(), &clients.Registration{
		ID:           id,
		ClientID:     clientID,
		ClientSecret: secret,
	}))
}

// createCode stores an unused code valid for ten minutes. An empty challenge means no PKCE.
func (f *testFixture) createCode(t *testing.T, code, registrationID, challenge string) {
	t.Helper()
	session := &sessions.AuthorizationSession{ID: "session-" + code}
	if challenge != "" {
		session.CodeChallenge = utils.Ptr(challenge)
	}
	require.NoError(t, f.sessionRepo.SaveSession(context.Background(), session))
	require.NoError(t, f.sessionRepo.SaveCode(context.Background(), &sessions.AuthorizationCode{
		Code:                   code,
		AuthorizationSessionID: session.ID,
		ClientRegistrationID:   registrationID,
		UpstreamTokenID:        testUpstreamID,
		ExpiresAt:              time.Now().Add(10 * time.Minute),
	}))
}

func (f *testFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *testFixture) postForm(t *testing.T, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(t, req)
}

func (f *testFixture) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	return f.do(t, req)
}

func decodeTokenResponse(t *testing.T, rec *httptest.ResponseRecorder) oauth2.TokenResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp oauth2.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func requireOAuthError(t *testing.T, rec *httptest.ResponseRecorder, status int, code, description string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, code, body["error"])
	if description != "" {
		require.Equal(t, description, body["error_description"])
	}
}

func requireCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := server.New(nil, nil)
	require.Error(t, err)

	_, err = server.New(config.New(), nil)
	require.Error(t, err)
}

func TestRoutes(t *testing.T) {
	f := setupTestFixtureWith(t, fixtureOptions{metrics: true})

	require.Equal(t, []string{
		"POST /oauth/token",
		"POST /oauth/revoke",
		"POST /oauth/introspect",
		"OPTIONS /oauth/token",
		"OPTIONS /oauth/revoke",
		"OPTIONS /oauth/introspect",
		"GET /.well-known/oauth-authorization-server",
		"GET /healthz",
		"GET /metrics",
	}, f.server.Routes())

	disabled := setupTestFixture(t)
	require.NotContains(t, disabled.server.Routes(), "GET /metrics")
}

func TestAuthorizationServerMetadata(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteWellKnownAuthServer, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	requireCORS(t, rec)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Equal(t, "https://proxy.example.com", doc["issuer"])
	require.Equal(t, "https://proxy.example.com/oauth/token", doc["token_endpoint"])
	require.Equal(t, "https://proxy.example.com/oauth/revoke", doc["revocation_endpoint"])
	require.Equal(t, "https://proxy.example.com/oauth/introspect", doc["introspection_endpoint"])
	require.ElementsMatch(t, []any{"authorization_code", "refresh_token"}, doc["grant_types_supported"])
	require.ElementsMatch(t, []any{"S256", "plain"}, doc["code_challenge_methods_supported"])
}

func TestHealthz(t *testing.T) {
	t.Run("ok without a check", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteHealthz, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("unavailable when the check fails", func(t *testing.T) {
		f := setupTestFixtureWith(t, fixtureOptions{health: func(context.Context) error {
			return context.DeadlineExceeded
		}})
		rec := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteHealthz, nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
	})
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupTestFixture(t)

	handler := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.server.APIMiddleware()...)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, server.RouteOAuthToken, nil))
	requireOAuthError(t, rec, http.StatusInternalServerError, oauth2.ErrorCodeServerError, "Internal server error")
	requireCORS(t, rec)
}

func TestMethodNotAllowed(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteOAuthToken, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixtureWith(t, fixtureOptions{metrics: true})
	f.createCode(t, "code-metrics", testPublicRegID, testCodeChallenge)

	rec := f.postForm(t, server.RouteOAuthToken, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"code-metrics"},
		"client_id":     {testPublicClientID},
		"code_verifier": {testCodeVerifier},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	metrics := f.do(t, httptest.NewRequest(http.MethodGet, server.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, metrics.Code)
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "proxy_token_grants")
	require.Contains(t, string(body), `grant_type="authorization_code"`)
}

func decodeJSON(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}
