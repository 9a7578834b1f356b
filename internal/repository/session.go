package repository

import (
	"context"
	"errors"
	"time"

	"fundboard/internal/models"
	"fundboard/internal/observability"

	"gorm.io/gorm"
)

// SessionRepository stores the server-side record of issued tokens.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenID(ctx context.Context, tokenID string) (*models.Session, error)
	DeleteByTokenID(ctx context.Context, tokenID string) error
	DeleteAllForUser(ctx context.Context, userID uint) ([]models.Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSessionRepository returns a new SessionRepository implementation.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db, log: observability.NewRepoLogger("sessions")}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	defer observability.TrackQuery("insert", "sessions")()
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": session.ID, "user_id": session.UserID})
	return nil
}

// GetByTokenID returns nil, nil when the token has no session.
func (r *sessionRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.Session, error) {
	defer observability.TrackQuery("select", "sessions")()
	var session models.Session
	if err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByTokenID(ctx context.Context, tokenID string) error {
	defer observability.TrackQuery("delete", "sessions")()
	if err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).Delete(&models.Session{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"token_id": tokenID})
	return nil
}

// DeleteAllForUser removes every session of the user and returns the removed rows
// so callers can revoke their tokens elsewhere.
func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userID uint) ([]models.Session, error) {
	defer observability.TrackQuery("delete", "sessions")()
	var sessions []models.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Find(&sessions).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"user_id": userID, "count": len(sessions)})
	return sessions, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	defer observability.TrackQuery("delete", "sessions")()
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
