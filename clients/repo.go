package clients

import "context"

// Repo provides access to client registrations.
// Lookups that find nothing return an error wrapping errors.ErrNotFound.
type Repo interface {
	// Get loads the registration matching both the primary key and the public client id.
	Get(ctx context.Context, id, clientID string) (*Registration, error)
	GetByClientID(ctx context.Context, clientID string) (*Registration, error)
	Save(ctx context.Context, registration *Registration) error
}
