package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/jrsteele09/mcp-token-proxy/token"
)

// Revoke deletes the proxy token identified by req.Token (RFC 7009). Tokens that are unknown or
// belong to another client are ignored, so the caller always answers 200 after authentication.
func (ts *TokenService) Revoke(ctx context.Context, req oauth2.ClientRequest) error {
	ctx = context.WithoutCancel(ctx)
	logger := ts.logger.With().Str("client_id", req.ClientID).Logger()

	registration, err := ts.authenticateClientID(ctx, logger, req.ClientID, req.ClientSecret)
	if err != nil {
		return err
	}

	proxyToken, err := ts.findOwnedToken(ctx, registration, req.Token, req.TokenTypeHint)
	if err != nil {
		return serverError(logger, err, "[TokenService.Revoke] failed to look up token")
	}
	if proxyToken == nil {
		logger.Debug().Msg("revocation requested for an unknown token")
		return nil
	}

	if err := ts.repos.Tokens.Delete(ctx, proxyToken.ID); err != nil && !errors.Is(err, errors.ErrNotFound) {
		return serverError(logger, err, "[TokenService.Revoke] failed to delete token")
	}
	ts.inst.Metrics().RecordTokenRevocation(ctx)
	logger.Info().Msg("proxy token revoked")
	return nil
}

// Introspect reports whether req.Token is a live proxy token owned by the calling client (RFC 7662).
func (ts *TokenService) Introspect(ctx context.Context, req oauth2.ClientRequest) (*oauth2.IntrospectionResponse, error) {
	ctx = context.WithoutCancel(ctx)
	logger := ts.logger.With().Str("client_id", req.ClientID).Logger()

	registration, err := ts.authenticateClientID(ctx, logger, req.ClientID, req.ClientSecret)
	if err != nil {
		return nil, err
	}

	proxyToken, err := ts.findOwnedToken(ctx, registration, req.Token, req.TokenTypeHint)
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.Introspect] failed to look up token")
	}

	response := &oauth2.IntrospectionResponse{Active: false}
	switch {
	case proxyToken == nil:
	case proxyToken.RefreshToken == req.Token:
		response = &oauth2.IntrospectionResponse{
			Active:    true,
			ClientID:  registration.ClientID,
			Scope:     oauth2.DefaultScope,
			TokenType: oauth2.BearerTokenType,
		}
	case !proxyToken.IsExpired(ts.nowTime()):
		response = &oauth2.IntrospectionResponse{
			Active:    true,
			ClientID:  registration.ClientID,
			Scope:     oauth2.DefaultScope,
			TokenType: oauth2.BearerTokenType,
			Exp:       proxyToken.ExpiresAt.Unix(),
		}
	}

	ts.inst.Metrics().RecordIntrospection(ctx, response.Active)
	return response, nil
}

// findOwnedToken looks the token up as an access and a refresh token, in hint order. It returns nil
// without error when nothing matches or the token belongs to a different registration.
func (ts *TokenService) findOwnedToken(ctx context.Context, registration *clients.Registration, tokenStr string, hint oauth2.TokenTypeHint) (*token.ProxyToken, error) {
	lookups := []func(context.Context, string) (*token.ProxyToken, error){
		ts.repos.Tokens.GetByAccessToken,
		ts.repos.Tokens.GetByRefreshToken,
	}
	if hint == oauth2.RefreshTokenHint {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}

	for _, lookup := range lookups {
		proxyToken, err := lookup(ctx, tokenStr)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if proxyToken.ClientRegistrationID != registration.ID {
			return nil, nil
		}
		return proxyToken, nil
	}
	return nil, nil
}

// CleanupResult reports how many rows a cleanup pass removed
type CleanupResult struct {
	Codes  int64
	Tokens int64
}

// Cleanup deletes authorization codes and proxy tokens that expired more than retention ago.
// Proxy tokens are kept for the retention window because their refresh token outlives the access token.
func (ts *TokenService) Cleanup(ctx context.Context, retention time.Duration) (CleanupResult, error) {
	before := ts.nowTime().Add(-retention)
	logger := ts.logger.With().Time("before", before).Logger()

	var result CleanupResult
	var err error
	if result.Codes, err = ts.repos.Sessions.DeleteExpiredCodes(ctx, before); err != nil {
		return result, errors.Wrapf(err, "[TokenService.Cleanup] failed to delete expired codes")
	}
	if result.Tokens, err = ts.repos.Tokens.DeleteExpired(ctx, before); err != nil {
		return result, errors.Wrapf(err, "[TokenService.Cleanup] failed to delete expired tokens")
	}

	logger.Info().Int64("codes", result.Codes).Int64("tokens", result.Tokens).Msg("expired rows removed")
	return result, nil
}
