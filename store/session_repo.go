package store

import (
	"context"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/internal/errors"
	"github.com/jrsteele09/mcp-token-proxy/sessions"
	"gorm.io/gorm"
)

var _ sessions.Repo = (*SessionRepo)(nil)

// SessionRepo stores authorization sessions and codes
type SessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) GetSession(ctx context.Context, sessionID string) (*sessions.AuthorizationSession, error) {
	var m AuthorizationSession
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&m).Error; err != nil {
		return nil, notFound(err, "[SessionRepo.GetSession] session %s", sessionID)
	}
	return m.toDomain(), nil
}

func (r *SessionRepo) SaveSession(ctx context.Context, session *sessions.AuthorizationSession) error {
	if err := r.db.WithContext(ctx).Save(newAuthorizationSession(session)).Error; err != nil {
		return errors.Wrapf(err, "[SessionRepo.SaveSession] failed to save session %s", session.ID)
	}
	return nil
}

func (r *SessionRepo) GetUnusedCode(ctx context.Context, code string) (*sessions.AuthorizationCode, error) {
	var m AuthorizationCode
	if err := r.db.WithContext(ctx).Where("code = ? AND used = ?", code, false).First(&m).Error; err != nil {
		return nil, notFound(err, "[SessionRepo.GetUnusedCode] authorization code")
	}
	return m.toDomain(), nil
}

func (r *SessionRepo) SaveCode(ctx context.Context, code *sessions.AuthorizationCode) error {
	if err := r.db.WithContext(ctx).Save(newAuthorizationCode(code)).Error; err != nil {
		return errors.Wrapf(err, "[SessionRepo.SaveCode] failed to save authorization code")
	}
	return nil
}

// MarkCodeUsed only updates a row that is still unused. Zero rows affected means another request
// consumed the code first.
func (r *SessionRepo) MarkCodeUsed(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&AuthorizationCode{}).
		Where("code = ? AND used = ?", code, false).
		Update("used", true)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "[SessionRepo.MarkCodeUsed] failed to mark code used")
	}
	if result.RowsAffected == 0 {
		return errors.ErrCodeAlreadyUsed
	}
	return nil
}

func (r *SessionRepo) DeleteExpiredCodes(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", toEpochMillis(before)).
		Delete(&AuthorizationCode{})
	if result.Error != nil {
		return 0, errors.Wrapf(result.Error, "[SessionRepo.DeleteExpiredCodes] failed to delete expired codes")
	}
	return result.RowsAffected, nil
}
