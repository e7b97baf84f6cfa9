package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

const defaultStaleAfter = 2 * time.Hour

type staleDriverRepo interface {
	MarkStaleOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// StaleDriverJobParams configure the stale driver sweep.
type StaleDriverJobParams struct {
	Logger     *logger.Logger
	Repository staleDriverRepo
	StaleAfter time.Duration
}

// NewStaleDriverJob flips drivers back to offline when their telemetry
// goes quiet. Keeps the live map honest when the driver app dies
// without a clean status update.
func NewStaleDriverJob(params StaleDriverJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("drivers repository required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &staleDriverJob{
		logg:       params.Logger,
		repo:       params.Repository,
		staleAfter: staleAfter,
		now:        time.Now,
	}, nil
}

type staleDriverJob struct {
	logg       *logger.Logger
	repo       staleDriverRepo
	staleAfter time.Duration
	now        func() time.Time
}

func (j *staleDriverJob) Name() string { return "stale-driver-sweep" }

func (j *staleDriverJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	flipped, err := j.repo.MarkStaleOffline(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("mark stale drivers offline: %w", err)
	}
	if flipped > 0 {
		j.logg.Info(j.logg.WithField(ctx, "flipped", flipped), "stale drivers marked offline")
	}
	return nil
}
