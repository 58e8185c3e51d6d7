package fakesessionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]*sessions.AuthorizationSession
	codes    map[string]*sessions.AuthorizationCode
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.AuthorizationSession),
		codes:    make(map[string]*sessions.AuthorizationCode),
	}
}

func (sr *FakeSessionRepo) GetSession(_ context.Context, sessionID string) (*sessions.AuthorizationSession, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[sessionID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "session %s", sessionID)
	}
	found := *session
	return &found, nil
}

func (sr *FakeSessionRepo) SaveSession(_ context.Context, session *sessions.AuthorizationSession) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	stored := *session
	sr.sessions[session.ID] = &stored
	return nil
}

func (sr *FakeSessionRepo) GetUnusedCode(_ context.Context, code string) (*sessions.AuthorizationCode, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	authCode, ok := sr.codes[code]
	if !ok || authCode.Used {
		return nil, errors.Wrapf(errors.ErrNotFound, "authorization code")
	}
	found := *authCode
	return &found, nil
}

// GetCode returns the code regardless of its used flag
func (sr *FakeSessionRepo) GetCode(code string) (*sessions.AuthorizationCode, bool) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	authCode, ok := sr.codes[code]
	if !ok {
		return nil, false
	}
	found := *authCode
	return &found, true
}

func (sr *FakeSessionRepo) SaveCode(_ context.Context, code *sessions.AuthorizationCode) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	stored := *code
	sr.codes[code.Code] = &stored
	return nil
}

func (sr *FakeSessionRepo) MarkCodeUsed(_ context.Context, code string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	authCode, ok := sr.codes[code]
	if !ok || authCode.Used {
		return errors.ErrCodeAlreadyUsed
	}
	authCode.Used = true
	return nil
}

func (sr *FakeSessionRepo) DeleteExpiredCodes(_ context.Context, before time.Time) (int64, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	var deleted int64
	for code, authCode := range sr.codes {
		if authCode.ExpiresAt.Before(before) {
			delete(sr.codes, code)
			deleted++
		}
	}
	return deleted, nil
}
