package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

const notificationRetentionDays = 30

type notificationPurger interface {
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationPurgeJobParams configure the notification purge job.
type NotificationPurgeJobParams struct {
	Logger     *logger.Logger
	Repository notificationPurger
	Retention  int
}

// NewNotificationPurgeJob deletes expired broadcasts once they have
// been invisible for the retention period. Reads already hide expired
// rows; this just reclaims the storage.
func NewNotificationPurgeJob(params NotificationPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = notificationRetentionDays
	}
	return &notificationPurgeJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type notificationPurgeJob struct {
	logg      *logger.Logger
	repo      notificationPurger
	retention int
	now       func() time.Time
}

func (j *notificationPurgeJob) Name() string { return "notification-purge" }

func (j *notificationPurgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.PurgeExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge expired notifications: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "expired notifications purged")
	return nil
}
