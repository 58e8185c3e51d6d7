package auth

import (
	"context"

	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/instrumentation"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	descInvalidCode          = "Invalid or expired authorization code"
	descExpiredCode          = "Authorization code has expired"
	descSessionNotFound      = "Authorization session not found"
	descVerifierRequired     = "Code verifier required for PKCE"
	descInvalidVerifier      = "Invalid code verifier"
	descInvalidRefreshToken  = "Invalid refresh token"
	descMissingCodeParams    = "Missing required parameters: code and client_id"
	descMissingRefreshParams = "Missing required parameters: refresh_token and client_id"
)

// exchangeAuthorizationCode trades an unused, unexpired authorization code for a new proxy token pair.
func (ts *TokenService) exchangeAuthorizationCode(ctx context.Context, logger zerolog.Logger, req oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	if req.Code == "" || req.ClientID == "" {
		return nil, oauth2.ErrInvalidRequest(descMissingCodeParams)
	}

	authCode, err := ts.repos.Sessions.GetUnusedCode(ctx, req.Code)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidGrant(descInvalidCode)
	}
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.exchangeAuthorizationCode] failed to load authorization code")
	}

	if authCode.IsExpired(ts.nowTime()) {
		return nil, oauth2.ErrInvalidGrant(descExpiredCode)
	}

	session, err := ts.repos.Sessions.GetSession(ctx, authCode.AuthorizationSessionID)
	if errors.Is(err, errors.ErrNotFound) {
		logger.Warn().Str("session_id", authCode.AuthorizationSessionID).Msg("authorization code references a missing session")
		return nil, oauth2.ErrInvalidGrant(descSessionNotFound)
	}
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.exchangeAuthorizationCode] failed to load authorization session")
	}

	if session.HasCodeChallenge() {
		method := session.ChallengeMethod()
		if req.CodeVerifier == "" {
			ts.inst.Metrics().RecordPKCEValidationFailed(ctx, string(method))
			return nil, oauth2.ErrInvalidGrant(descVerifierRequired)
		}
		if !oauth2.VerifyCodeChallenge(req.CodeVerifier, *session.CodeChallenge, method) {
			ts.inst.Metrics().RecordPKCEValidationFailed(ctx, string(method))
			return nil, oauth2.ErrInvalidGrant(descInvalidVerifier)
		}
		instrumentation.SetSpanAttributes(trace.SpanFromContext(ctx), attribute.String(instrumentation.AttrPKCEMethod, string(method)))
		logger.Debug().Str("pkce_method", string(method)).Msg("code verifier accepted")
	}

	registration, err := ts.authenticateClient(ctx, logger, authCode.ClientRegistrationID, req.ClientID, req.ClientSecret, descClientAuthRequired)
	if err != nil {
		return nil, err
	}
	addClientTypeAttribute(ctx, registration)
	if !registration.IsConfidential() && req.CodeVerifier == "" {
		logger.Warn().Msg("public client exchanged an authorization code without PKCE")
	}

	if err := ts.repos.Sessions.MarkCodeUsed(ctx, authCode.Code); err != nil {
		if errors.Is(err, errors.ErrCodeAlreadyUsed) {
			ts.inst.Metrics().RecordCodeReuseDetected(ctx)
			logger.Warn().Msg("authorization code consumed by a concurrent request")
			return nil, oauth2.ErrInvalidGrant(descInvalidCode)
		}
		return nil, serverError(logger, err, "[TokenService.exchangeAuthorizationCode] failed to mark code used")
	}

	proxyToken, err := ts.issuer.Issue(registration.ID, authCode.UpstreamTokenID)
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.exchangeAuthorizationCode] failed to issue token")
	}
	if err := ts.repos.Tokens.Insert(ctx, proxyToken); err != nil {
		return nil, serverError(logger, err, "[TokenService.exchangeAuthorizationCode] failed to store token")
	}

	return ts.tokenResponse(proxyToken), nil
}

// exchangeRefreshToken retires the presented refresh token and issues a replacement pair carrying the
// same client and upstream linkage.
func (ts *TokenService) exchangeRefreshToken(ctx context.Context, logger zerolog.Logger, req oauth2.TokenRequest) (*oauth2.TokenResponse, error) {
	if req.RefreshToken == "" || req.ClientID == "" {
		return nil, oauth2.ErrInvalidRequest(descMissingRefreshParams)
	}

	existing, err := ts.repos.Tokens.GetByRefreshToken(ctx, req.RefreshToken)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidGrant(descInvalidRefreshToken)
	}
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.exchangeRefreshToken] failed to load refresh token")
	}

	registration, err := ts.authenticateClient(ctx, logger, existing.ClientRegistrationID, req.ClientID, req.ClientSecret, descInvalidClientCredential)
	if err != nil {
		return nil, err
	}
	addClientTypeAttribute(ctx, registration)

	replacement, err := ts.issuer.Issue(existing.ClientRegistrationID, existing.UpstreamTokenID)
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.exchangeRefreshToken] failed to issue token")
	}

	if err := ts.repos.Tokens.Rotate(ctx, existing.ID, replacement); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			logger.Warn().Msg("refresh token rotated by a concurrent request")
			return nil, oauth2.ErrInvalidGrant(descInvalidRefreshToken)
		}
		return nil, serverError(logger, err, "[TokenService.exchangeRefreshToken] failed to rotate token")
	}
	instrumentation.SetSpanAttributes(trace.SpanFromContext(ctx), attribute.Bool(instrumentation.AttrTokenRotated, true))

	return ts.tokenResponse(replacement), nil
}

func addClientTypeAttribute(ctx context.Context, registration *clients.Registration) {
	clientType := "public"
	if registration.IsConfidential() {
		clientType = "confidential"
	}
	instrumentation.SetSpanAttributes(trace.SpanFromContext(ctx), attribute.String(instrumentation.AttrClientType, clientType))
}
