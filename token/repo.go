package token

import (
	"context"
	"time"
)

// Repo stores proxy tokens.
// Lookups that find nothing return an error wrapping errors.ErrNotFound.
type Repo interface {
	Insert(ctx context.Context, token *ProxyToken) error
	GetByAccessToken(ctx context.Context, accessToken string) (*ProxyToken, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*ProxyToken, error)

	// Rotate deletes the token with oldID and inserts replacement as one unit. If oldID is already
	// gone it returns errors.ErrNotFound and inserts nothing, so a refresh token is honoured once.
	Rotate(ctx context.Context, oldID string, replacement *ProxyToken) error

	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
