package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/instrumentation"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/jrsteele09/mcp-token-proxy/sessions"
	"github.com/jrsteele09/mcp-token-proxy/token"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Repos holds all repository dependencies for the TokenService
type Repos struct {
	Clients  clients.Repo  // Client registrations
	Sessions sessions.Repo // Authorization sessions and codes
	Tokens   token.Repo    // Issued proxy tokens
}

// TokenService runs the token endpoint grants: it exchanges authorization codes and rotates
// refresh tokens for opaque proxy token pairs.
type TokenService struct {
	repos   Repos
	issuer  *token.Issuer
	logger  zerolog.Logger
	inst    *instrumentation.Instrumentation
	tracer  trace.Tracer
	nowTime func() time.Time // injectable for testing
}

// TokenServiceOption defines a function type to modify the TokenService instance.
type TokenServiceOption func(*TokenService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		ts.nowTime = nowFunc
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) TokenServiceOption {
	return func(ts *TokenService) {
		ts.logger = logger
	}
}

// WithInstrumentation sets the metrics and tracing providers
func WithInstrumentation(inst *instrumentation.Instrumentation) TokenServiceOption {
	return func(ts *TokenService) {
		ts.inst = inst
	}
}

// WithIssuer replaces the default token issuer
func WithIssuer(issuer *token.Issuer) TokenServiceOption {
	return func(ts *TokenService) {
		ts.issuer = issuer
	}
}

// NewTokenService initializes a new TokenService with required dependencies.
func NewTokenService(repos Repos, options ...TokenServiceOption) (*TokenService, error) {
	if repos.Clients == nil {
		return nil, errors.New("[NewTokenService] Clients repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewTokenService] Sessions repo is required")
	}
	if repos.Tokens == nil {
		return nil, errors.New("[NewTokenService] Tokens repo is required")
	}

	ts := &TokenService{
		repos:   repos,
		logger:  zerolog.Nop(),
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(ts)
	}

	if ts.issuer == nil {
		ts.issuer = token.NewIssuer(token.WithNowTime(ts.nowTime))
	}
	if ts.inst == nil {
		ts.inst = instrumentation.NewDisabled()
	}
	ts.tracer = ts.inst.Tracer("auth")

	return ts, nil
}

// Exchange runs the grant named by req.GrantType. Every error it returns is an *oauth2.Error.
// The grant is detached from ctx cancellation: once started it runs to completion.
func (ts *TokenService) Exchange(ctx context.Context, req oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()

	ctx, span := ts.tracer.Start(ctx, "token.exchange")
	defer span.End()
	instrumentation.AddGrantAttributes(span, string(req.GrantType), req.ClientID)

	logger := ts.logger.With().
		Str("grant_type", string(req.GrantType)).
		Str("client_id", req.ClientID).
		Logger()

	var (
		response *oauth2.TokenResponse
		err      error
	)
	switch req.GrantType {
	case oauth2.AuthorizationCodeGrant:
		response, err = ts.exchangeAuthorizationCode(ctx, logger, req)
	case oauth2.RefreshTokenGrant:
		response, err = ts.exchangeRefreshToken(ctx, logger, req)
	default:
		err = oauth2.ErrUnsupportedGrantType("Unsupported grant type")
	}

	result := instrumentation.ResultSuccess
	if err != nil {
		oauthErr := oauth2.AsError(err)
		result = oauthErr.Code
		instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrError, oauthErr.Code))
		instrumentation.RecordError(span, oauthErr)
		logger.Info().Str("error", oauthErr.Code).Str("error_description", oauthErr.Description).Msg("token request rejected")
		err = oauthErr
	} else {
		instrumentation.SetSpanSuccess(span)
		logger.Info().Msg("token pair issued")
	}
	ts.inst.Metrics().RecordGrant(ctx, string(req.GrantType), result, time.Since(started))

	return response, err
}

func (ts *TokenService) tokenResponse(proxyToken *token.ProxyToken) *oauth2.TokenResponse {
	return &oauth2.TokenResponse{
		AccessToken:  proxyToken.AccessToken,
		TokenType:    oauth2.BearerTokenType,
		ExpiresIn:    int(ts.issuer.Lifetime() / time.Second),
		RefreshToken: proxyToken.RefreshToken,
		Scope:        oauth2.DefaultScope,
	}
}

// serverError logs the cause and returns a generic server_error
func serverError(logger zerolog.Logger, err error, msg string) *oauth2.Error {
	logger.Error().Err(err).Msg(msg)
	return oauth2.ErrServerError("Internal server error")
}
