package fakeclientrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

type FakeClientRepo struct {
	clients map[string]*clients.Registration
	lock    sync.RWMutex
}

func NewFakeClientRepo() *FakeClientRepo {
	return &FakeClientRepo{
		clients: make(map[string]*clients.Registration),
	}
}

func (r *FakeClientRepo) Save(_ context.Context, registration *clients.Registration) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if registration.ID == "" {
		registration.ID = uuid.New().String()
	}
	stored := *registration
	r.clients[registration.ID] = &stored
	return nil
}

func (r *FakeClientRepo) Get(_ context.Context, id, clientID string) (*clients.Registration, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	registration, ok := r.clients[id]
	if !ok || registration.ClientID != clientID {
		return nil, errors.Wrapf(errors.ErrNotFound, "client registration %s", clientID)
	}
	found := *registration
	return &found, nil
}

func (r *FakeClientRepo) GetByClientID(_ context.Context, clientID string) (*clients.Registration, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, registration := range r.clients {
		if registration.ClientID == clientID {
			found := *registration
			return &found, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "client registration %s", clientID)
}
