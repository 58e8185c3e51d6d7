package auth

import (
	"context"

	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/oauth2"
	"github.com/rs/zerolog"
)

const (
	descClientNotFound          = "Client not found"
	descClientAuthRequired      = "Client authentication required"
	descInvalidClientCredential = "Invalid client credentials"
)

// authenticateClient loads the registration a code or token was issued to, scoped to the presented
// client_id, and checks the secret for confidential clients. missingSecretDesc is the description
// used when a confidential client sends no secret.
func (ts *TokenService) authenticateClient(
	ctx context.Context,
	logger zerolog.Logger,
	registrationID, clientID, clientSecret, missingSecretDesc string,
) (*clients.Registration, error) {
	registration, err := ts.repos.Clients.Get(ctx, registrationID, clientID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidClient(descClientNotFound)
	}
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.authenticateClient] failed to load client registration")
	}
	if err := verifySecret(registration, clientSecret, missingSecretDesc); err != nil {
		return nil, err
	}
	return registration, nil
}

// authenticateClientID is used by endpoints that receive only a token and a client_id.
func (ts *TokenService) authenticateClientID(ctx context.Context, logger zerolog.Logger, clientID, clientSecret string) (*clients.Registration, error) {
	registration, err := ts.repos.Clients.GetByClientID(ctx, clientID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, oauth2.ErrInvalidClient(descClientNotFound)
	}
	if err != nil {
		return nil, serverError(logger, err, "[TokenService.authenticateClientID] failed to load client registration")
	}
	if err := verifySecret(registration, clientSecret, descClientAuthRequired); err != nil {
		return nil, err
	}
	return registration, nil
}

func verifySecret(registration *clients.Registration, clientSecret, missingSecretDesc string) error {
	err := registration.VerifySecret(clientSecret)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errors.ErrMissingClientSecret):
		return oauth2.ErrInvalidClient(missingSecretDesc)
	default:
		return oauth2.ErrInvalidClient(descInvalidClientCredential)
	}
}
