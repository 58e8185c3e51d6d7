package store

import (
	"context"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/token"
	"gorm.io/gorm"
)

var _ token.Repo = (*TokenRepo)(nil)

// TokenRepo stores issued proxy tokens
type TokenRepo struct {
	db *gorm.DB
}

func NewTokenRepo(db *gorm.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Insert(ctx context.Context, proxyToken *token.ProxyToken) error {
	if err := r.db.WithContext(ctx).Create(newProxyToken(proxyToken)).Error; err != nil {
		return errors.Wrapf(err, "[TokenRepo.Insert] failed to insert proxy token")
	}
	return nil
}

func (r *TokenRepo) GetByAccessToken(ctx context.Context, accessToken string) (*token.ProxyToken, error) {
	var m ProxyToken
	if err := r.db.WithContext(ctx).Where("access_token = ?", accessToken).First(&m).Error; err != nil {
		return nil, notFound(err, "[TokenRepo.GetByAccessToken] proxy token")
	}
	return m.toDomain(), nil
}

func (r *TokenRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (*token.ProxyToken, error) {
	var m ProxyToken
	if err := r.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).First(&m).Error; err != nil {
		return nil, notFound(err, "[TokenRepo.GetByRefreshToken] proxy token")
	}
	return m.toDomain(), nil
}

// Rotate deletes the old row and inserts the replacement in one transaction. When the delete
// matches nothing the transaction is rolled back and errors.ErrNotFound is returned.
func (r *TokenRepo) Rotate(ctx context.Context, oldID string, replacement *token.ProxyToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", oldID).Delete(&ProxyToken{})
		if result.Error != nil {
			return errors.Wrapf(result.Error, "[TokenRepo.Rotate] failed to delete proxy token %s", oldID)
		}
		if result.RowsAffected == 0 {
			return errors.Wrapf(errors.ErrNotFound, "[TokenRepo.Rotate] proxy token %s", oldID)
		}
		if err := tx.Create(newProxyToken(replacement)).Error; err != nil {
			return errors.Wrapf(err, "[TokenRepo.Rotate] failed to insert replacement token")
		}
		return nil
	})
}

func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ProxyToken{})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "[TokenRepo.Delete] failed to delete proxy token %s", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrapf(errors.ErrNotFound, "[TokenRepo.Delete] proxy token %s", id)
	}
	return nil
}

func (r *TokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", toEpochMillis(before)).
		Delete(&ProxyToken{})
	if result.Error != nil {
		return 0, errors.Wrapf(result.Error, "[TokenRepo.DeleteExpired] failed to delete expired tokens")
	}
	return result.RowsAffected, nil
}
