package sessions

import (
	"context"
	"time"
)

// Repo defines the storage operations the token endpoint needs for authorization sessions and codes.
// Lookups that find nothing return an error wrapping errors.ErrNotFound.
type Repo interface {
	// GetSession retrieves an authorization session by ID
	GetSession(ctx context.Context, sessionID string) (*AuthorizationSession, error)

	// SaveSession creates or replaces a session
	SaveSession(ctx context.Context, session *AuthorizationSession) error

	// GetUnusedCode retrieves the code only while it has not been used. Expiry is not checked.
	GetUnusedCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// SaveCode creates or replaces an authorization code
	SaveCode(ctx context.Context, code *AuthorizationCode) error

	// MarkCodeUsed flips the code from unused to used. It returns errors.ErrCodeAlreadyUsed when no
	// unused row matched, so at most one caller can consume a code.
	MarkCodeUsed(ctx context.Context, code string) error

	// DeleteExpiredCodes removes codes that expired before the given time
	DeleteExpiredCodes(ctx context.Context, before time.Time) (int64, error)
}
