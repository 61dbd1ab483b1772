package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/casadefe/iglesia-backend/pkg/logger"
)

const defaultRetentionDays = 30

// NotificationCleanupJobParams configure the read-notification purge job.
type NotificationCleanupJobParams struct {
	Logger         *logger.Logger
	Notificaciones notificacionesPurger
	RetentionDays  int
}

type notificacionesPurger interface {
	PurgeLeidas(ctx context.Context, olderThan time.Time) (int64, error)
}

// NewNotificationCleanupJob builds the job that deletes read notifications
// older than the retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notificaciones == nil {
		return nil, fmt.Errorf("notificaciones service required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultRetentionDays
	}
	return &notificationCleanupJob{
		logg:      params.Logger,
		purger:    params.Notificaciones,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationCleanupJob struct {
	logg      *logger.Logger
	purger    notificacionesPurger
	retention int
	now       func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.purger.PurgeLeidas(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge notificaciones: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "read notifications purged")
	return nil
}
