package notificaciones

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notificaciones. Rows are always
// addressed to a single user; there is no cross-user read surface.
type Repository interface {
	Create(ctx context.Context, notificacion *models.Notificacion) error
	List(ctx context.Context, params listNotificacionesParams) ([]models.Notificacion, *pagination.Cursor, error)
	MarkRead(ctx context.Context, userID, notificacionID uuid.UUID, now time.Time) (markResult, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	ExistsCumpleanosSince(ctx context.Context, userID, personaID uuid.UUID, since time.Time) (bool, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notificaciones repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificacionesParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type markResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) Create(ctx context.Context, notificacion *models.Notificacion) error {
	return r.db.WithContext(ctx).Create(notificacion).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificacionesParams) ([]models.Notificacion, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Notificacion{}).Where("user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Notificacion
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, userID, notificacionID uuid.UUID, now time.Time) (markResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notificacion{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificacionID, userID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return markResult{}, result.Error
	}

	mark := markResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notificacion{}).
		Where("id = ? AND user_id = ?", notificacionID, userID).
		Count(&count).Error; err != nil {
		return markResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notificacion{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ExistsCumpleanosSince reports whether a birthday notice for the persona was
// already delivered to the user after the given instant. The cron job uses it
// to stay idempotent across reruns.
func (r *repositoryImpl) ExistsCumpleanosSince(ctx context.Context, userID, personaID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notificacion{}).
		Where("user_id = ? AND persona_id = ? AND tipo = ? AND created_at >= ?",
			userID, personaID, enums.NotificationTypeCumpleanos, since).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notificacion{})
	return result.RowsAffected, result.Error
}
