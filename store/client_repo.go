package store

import (
	"context"

	"github.com/jrsteele09/mcp-token-proxy/clients"
	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"gorm.io/gorm"
)

var _ clients.Repo = (*ClientRepo)(nil)

// ClientRepo stores client registrations in mcp_client_registrations
type ClientRepo struct {
	db *gorm.DB
}

func NewClientRepo(db *gorm.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) Get(ctx context.Context, id, clientID string) (*clients.Registration, error) {
	var m ClientRegistration
	err := r.db.WithContext(ctx).Where("id = ? AND client_id = ?", id, clientID).First(&m).Error
	if err != nil {
		return nil, notFound(err, "[ClientRepo.Get] client registration %s", clientID)
	}
	return m.toDomain(), nil
}

func (r *ClientRepo) GetByClientID(ctx context.Context, clientID string) (*clients.Registration, error) {
	var m ClientRegistration
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&m).Error
	if err != nil {
		return nil, notFound(err, "[ClientRepo.GetByClientID] client registration %s", clientID)
	}
	return m.toDomain(), nil
}

func (r *ClientRepo) Save(ctx context.Context, registration *clients.Registration) error {
	if err := r.db.WithContext(ctx).Save(newClientRegistration(registration)).Error; err != nil {
		return errors.Wrapf(err, "[ClientRepo.Save] failed to save client registration %s", registration.ClientID)
	}
	return nil
}

// notFound maps gorm.ErrRecordNotFound onto errors.ErrNotFound and wraps anything else as is.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(errors.ErrNotFound, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
