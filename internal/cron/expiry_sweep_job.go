package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

// ExpirySweepJobParams configure the bulk expiry job.
type ExpirySweepJobParams struct {
	Logger *logger.Logger
	Repo   subscriptions.Repository
	Now    func() time.Time
}

// NewExpirySweepJob builds the job that expires lapsed subscriptions in bulk.
// Lazy expiry on read handles users who come back; this sweep converges the
// rest so entitlement state does not depend on traffic.
func NewExpirySweepJob(params ExpirySweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &expirySweepJob{
		logg: params.Logger,
		repo: params.Repo,
		now:  now,
	}, nil
}

type expirySweepJob struct {
	logg *logger.Logger
	repo subscriptions.Repository
	now  func() time.Time
}

func (j *expirySweepJob) Name() string { return "subscription-expiry-sweep" }

func (j *expirySweepJob) Run(ctx context.Context) error {
	expired, err := j.repo.ExpireOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("expire overdue subscriptions: %w", err)
	}
	reportCtx := j.logg.WithField(ctx, "expired", expired)
	j.logg.Info(reportCtx, "expiry sweep complete")
	return nil
}
