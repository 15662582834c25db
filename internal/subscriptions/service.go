package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/internal/audit"
	"github.com/rakapradana/pustaka-backend/internal/plans"
	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// Info is the read projection returned to entitlement and profile callers.
type Info struct {
	Status        enums.SubscriptionStatus
	PlanName      string
	OrderID       string
	StartDate     *time.Time
	EndDate       *time.Time
	GrossAmount   decimal.Decimal
	RemainingDays int
}

// Service owns the subscription lifecycle: activation, cancellation and
// entitlement reads with lazy expiry.
type Service interface {
	Activate(ctx context.Context, input ActivateInput) (*models.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID, reason string) error
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
	GetInfo(ctx context.Context, userID uuid.UUID) (*Info, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Subscription, error)
	AttachGatewayTransaction(ctx context.Context, orderID, gatewayTransactionID string) error
}

// ActivateInput captures a verified successful payment.
type ActivateInput struct {
	UserID               uuid.UUID
	PlanName             string
	OrderID              string
	Gateway              enums.PaymentGateway
	GrossAmount          decimal.Decimal
	GatewayTransactionID *string
}

// ServiceParams groups dependencies for the lifecycle service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Audit             auditRecorder
	Logger            *logger.Logger
}

type service struct {
	repo     Repository
	txRunner txRunner
	audit    auditRecorder
	logg     *logger.Logger
}

// NewService builds the lifecycle service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.TransactionRunner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Audit == nil {
		return nil, errors.New("audit recorder is required")
	}
	return &service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		audit:    params.Audit,
		logg:     params.Logger,
	}, nil
}

// Activate upserts the user's single subscription row into the active state.
// Replays with the same order id keep the original start date so the end date
// never extends on repeated webhook deliveries.
func (s *service) Activate(ctx context.Context, input ActivateInput) (*models.Subscription, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	def, ok := plans.Lookup(input.PlanName)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown plan %q", input.PlanName))
	}

	var result *models.Subscription
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sub, err := repo.FindByUserID(ctx, input.UserID)
		if err != nil {
			return err
		}
		created := sub == nil

		now := time.Now().UTC()
		start := now
		if sub != nil && sub.OrderID == input.OrderID && sub.StartDate != nil {
			// Redelivery of the same settlement: keep the original window even
			// when the row has since expired or been cancelled.
			start = *sub.StartDate
		}
		end := start.AddDate(0, 0, def.DurationDays)

		if created {
			sub = &models.Subscription{UserID: input.UserID}
		}
		sub.Status = enums.SubscriptionStatusActive
		sub.PlanName = input.PlanName
		sub.OrderID = input.OrderID
		sub.Gateway = input.Gateway
		sub.StartDate = &start
		sub.EndDate = &end
		sub.GrossAmount = input.GrossAmount
		if input.GatewayTransactionID != nil {
			sub.GatewayTransactionID = input.GatewayTransactionID
		}

		if created {
			if err := repo.Create(ctx, sub); err != nil {
				return err
			}
		} else if err := repo.Update(ctx, sub); err != nil {
			return err
		}

		result = sub
		return s.audit.RecordTx(ctx, tx, audit.Entry{
			Type:        enums.AdminEventSubscriptionActivated,
			Title:       "Subscription Activated",
			Description: fmt.Sprintf("Plan %s activated for order %s", input.PlanName, input.OrderID),
			Metadata: map[string]any{
				"user_id":  input.UserID.String(),
				"plan":     input.PlanName,
				"order_id": input.OrderID,
				"end_date": end.Format(time.RFC3339),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel marks the subscription cancelled regardless of its current status.
// A missing row means there is nothing to cancel and is not an error.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, reason string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sub, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if sub == nil {
			if s.logg != nil {
				s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "cancel requested for absent subscription")
			}
			return nil
		}

		sub.Status = enums.SubscriptionStatusCancelled
		if err := repo.Update(ctx, sub); err != nil {
			return err
		}

		return s.audit.RecordTx(ctx, tx, audit.Entry{
			Type:        enums.AdminEventSubscriptionCancelled,
			Title:       "Subscription Cancelled",
			Description: fmt.Sprintf("Subscription for order %s cancelled: %s", sub.OrderID, reason),
			Metadata: map[string]any{
				"user_id":  userID.String(),
				"order_id": sub.OrderID,
				"reason":   reason,
			},
		})
	})
}

// IsActive reports whether the user currently holds an unexpired active
// subscription, flipping overdue rows to expired as a durable side effect.
func (s *service) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.readWithLazyExpiry(ctx, userID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	return sub.Status == enums.SubscriptionStatusActive, nil
}

// GetInfo returns the full projection, or nil when the user has none.
func (s *service) GetInfo(ctx context.Context, userID uuid.UUID) (*Info, error) {
	sub, err := s.readWithLazyExpiry(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	info := &Info{
		Status:      sub.Status,
		PlanName:    sub.PlanName,
		OrderID:     sub.OrderID,
		StartDate:   sub.StartDate,
		EndDate:     sub.EndDate,
		GrossAmount: sub.GrossAmount,
	}
	if sub.Status == enums.SubscriptionStatusActive && sub.EndDate != nil {
		remaining := int(time.Until(*sub.EndDate).Hours() / 24)
		if remaining < 0 {
			remaining = 0
		}
		info.RemainingDays = remaining
	}
	return info, nil
}

func (s *service) FindByOrderID(ctx context.Context, orderID string) (*models.Subscription, error) {
	return s.repo.FindByOrderID(ctx, orderID)
}

func (s *service) AttachGatewayTransaction(ctx context.Context, orderID, gatewayTransactionID string) error {
	if orderID == "" || gatewayTransactionID == "" {
		return nil
	}
	return s.repo.SetGatewayTransactionID(ctx, orderID, gatewayTransactionID)
}

// readWithLazyExpiry loads the subscription and persists the ACTIVE to
// EXPIRED transition when the end date has passed. This is the only state
// change that happens outside webhook processing.
func (s *service) readWithLazyExpiry(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	sub, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	if sub.Status == enums.SubscriptionStatusActive && sub.EndDate != nil && time.Now().UTC().After(*sub.EndDate) {
		err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			sub.Status = enums.SubscriptionStatusExpired
			if err := repo.Update(ctx, sub); err != nil {
				return err
			}
			return s.audit.RecordTx(ctx, tx, audit.Entry{
				Type:        enums.AdminEventSubscriptionExpired,
				Title:       "Subscription Expired",
				Description: fmt.Sprintf("Subscription for order %s lapsed", sub.OrderID),
				Metadata: map[string]any{
					"user_id":  userID.String(),
					"order_id": sub.OrderID,
				},
			})
		})
		if err != nil {
			return nil, err
		}
	}

	return sub, nil
}
