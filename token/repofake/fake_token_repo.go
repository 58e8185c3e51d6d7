package tokenfakerepo

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/token"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	tokens        map[string]*token.ProxyToken
	accessTokens  map[string]string // access token to ID
	refreshTokens map[string]string // refresh token to ID
	lock          sync.RWMutex
}

func NewFakeTokensRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		tokens:        make(map[string]*token.ProxyToken),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]string),
	}
}

func (tr *FakeTokenRepo) Insert(_ context.Context, proxyToken *token.ProxyToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.insert(proxyToken)
	return nil
}

func (tr *FakeTokenRepo) insert(proxyToken *token.ProxyToken) {
	stored := *proxyToken
	tr.tokens[stored.ID] = &stored
	tr.accessTokens[stored.AccessToken] = stored.ID
	tr.refreshTokens[stored.RefreshToken] = stored.ID
}

func (tr *FakeTokenRepo) GetByAccessToken(_ context.Context, accessToken string) (*token.ProxyToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	return tr.lookup(tr.accessTokens, accessToken)
}

func (tr *FakeTokenRepo) GetByRefreshToken(_ context.Context, refreshToken string) (*token.ProxyToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	return tr.lookup(tr.refreshTokens, refreshToken)
}

func (tr *FakeTokenRepo) lookup(index map[string]string, key string) (*token.ProxyToken, error) {
	id, ok := index[key]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "proxy token")
	}
	found := *tr.tokens[id]
	return &found, nil
}

func (tr *FakeTokenRepo) Rotate(_ context.Context, oldID string, replacement *token.ProxyToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if !tr.delete(oldID) {
		return errors.Wrapf(errors.ErrNotFound, "proxy token %s", oldID)
	}
	tr.insert(replacement)
	return nil
}

func (tr *FakeTokenRepo) Delete(_ context.Context, id string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if !tr.delete(id) {
		return errors.Wrapf(errors.ErrNotFound, "proxy token %s", id)
	}
	return nil
}

func (tr *FakeTokenRepo) delete(id string) bool {
	existing, ok := tr.tokens[id]
	if !ok {
		return false
	}
	delete(tr.accessTokens, existing.AccessToken)
	delete(tr.refreshTokens, existing.RefreshToken)
	delete(tr.tokens, id)
	return true
}

func (tr *FakeTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	var deleted int64
	for id, proxyToken := range tr.tokens {
		if proxyToken.ExpiresAt.Before(before) {
			tr.delete(id)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of stored tokens
func (tr *FakeTokenRepo) Count() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.tokens)
}
