package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/internal/audit"
	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

const (
	defaultPendingTTL        = 24 * time.Hour
	defaultPendingSweepLimit = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// PendingCheckoutJobParams configure the abandoned checkout sweep.
type PendingCheckoutJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repo       subscriptions.Repository
	Audit      auditRecorder
	PendingTTL time.Duration
	Limit      int
	Now        func() time.Time
}

// NewPendingCheckoutJob builds the job that cancels checkouts whose payment
// never arrived. Gateways stop retrying after their own window, so a row
// still PENDING past the TTL will never settle.
func NewPendingCheckoutJob(params PendingCheckoutJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPendingSweepLimit
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &pendingCheckoutJob{
		logg:  params.Logger,
		db:    params.DB,
		repo:  params.Repo,
		audit: params.Audit,
		ttl:   ttl,
		limit: limit,
		now:   now,
	}, nil
}

type pendingCheckoutJob struct {
	logg  *logger.Logger
	db    txRunner
	repo  subscriptions.Repository
	audit auditRecorder
	ttl   time.Duration
	limit int
	now   func() time.Time
}

func (j *pendingCheckoutJob) Name() string { return "pending-checkout-sweep" }

func (j *pendingCheckoutJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.repo.ListStalePending(ctx, cutoff, j.limit)
	if err != nil {
		return fmt.Errorf("list stale pending checkouts: %w", err)
	}

	var errs error
	abandoned := 0
	for i := range stale {
		if err := j.abandon(ctx, &stale[i]); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		abandoned++
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(stale),
		"abandoned":  abandoned,
	})
	j.logg.Info(reportCtx, "pending checkout sweep complete")
	return errs
}

func (j *pendingCheckoutJob) abandon(ctx context.Context, sub *models.Subscription) error {
	logCtx := j.logg.WithOrderID(ctx, sub.OrderID)
	return j.db.WithTx(logCtx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)

		current, err := repo.FindByUserID(logCtx, sub.UserID)
		if err != nil {
			return err
		}
		if current == nil || current.Status != enums.SubscriptionStatusPending || current.OrderID != sub.OrderID {
			// A webhook won the race since the listing; leave it alone.
			return nil
		}

		current.Status = enums.SubscriptionStatusCancelled
		if err := repo.Update(logCtx, current); err != nil {
			return err
		}

		return j.audit.RecordTx(logCtx, tx, audit.Entry{
			Type:        enums.AdminEventCheckoutAbandoned,
			Title:       "Checkout Abandoned",
			Description: fmt.Sprintf("Checkout %s stayed pending past the payment window", sub.OrderID),
			Metadata: map[string]any{
				"user_id":  sub.UserID.String(),
				"order_id": sub.OrderID,
				"plan":     sub.PlanName,
			},
		})
	})
}
