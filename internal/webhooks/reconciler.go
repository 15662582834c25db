package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	"github.com/rakapradana/pustaka-backend/internal/transactions"
	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
	"github.com/rakapradana/pustaka-backend/pkg/metrics"
)

// Action is what a mapped callback status asks of the lifecycle manager.
type Action int

const (
	ActionNone Action = iota
	ActionActivate
	ActionCancel
)

// Update is a gateway callback reduced to internal vocabulary. The adapters
// produce one after signature verification; the reconciler applies it.
type Update struct {
	OrderID              string
	Status               enums.TransactionStatus
	Action               Action
	PaymentType          *string
	GatewayTransactionID *string
	TransactionTime      *time.Time
	SettlementTime       *time.Time
	Raw                  json.RawMessage
}

// Result is the body answered to the gateway. Success false with a nil error
// means the failure was swallowed to keep the gateway from retrying.
type Result struct {
	Success bool
	Message string
}

type lifecycle interface {
	Activate(ctx context.Context, input subscriptions.ActivateInput) (*models.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID, reason string) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Subscription, error)
	AttachGatewayTransaction(ctx context.Context, orderID, gatewayTransactionID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Reconciler applies verified gateway callbacks to the ledger and the
// subscription lifecycle. It is gateway-agnostic; the adapters own parsing
// and signature schemes.
type Reconciler struct {
	lifecycle    lifecycle
	transactions transactions.Repository
	txRunner     txRunner
	metrics      *metrics.WebhookMetrics
	logg         *logger.Logger
}

// ReconcilerParams groups dependencies for the reconciler.
type ReconcilerParams struct {
	Lifecycle         lifecycle
	Transactions      transactions.Repository
	TransactionRunner txRunner
	Metrics           *metrics.WebhookMetrics
	Logger            *logger.Logger
}

// NewReconciler builds the shared callback reconciler.
func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Lifecycle == nil {
		return nil, errors.New("lifecycle is required")
	}
	if params.Transactions == nil {
		return nil, errors.New("transactions repo is required")
	}
	if params.TransactionRunner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Metrics == nil {
		return nil, errors.New("metrics is required")
	}
	return &Reconciler{
		lifecycle:    params.Lifecycle,
		transactions: params.Transactions,
		txRunner:     params.TransactionRunner,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Apply reconciles one verified callback. It returns an error only for an
// unknown order id; every failure past that point is logged, counted and
// answered as a success-class response so the gateway does not retry.
func (r *Reconciler) Apply(ctx context.Context, gatewayName enums.PaymentGateway, update Update) (*Result, error) {
	if r.logg != nil {
		ctx = r.logg.WithGateway(r.logg.WithOrderID(ctx, update.OrderID), gatewayName.String())
	}

	sub, err := r.lifecycle.FindByOrderID(ctx, update.OrderID)
	if err != nil {
		return r.swallow(ctx, gatewayName, "subscription lookup failed", err), nil
	}
	if sub == nil {
		r.metrics.IncRejected(gatewayName.String(), "unknown_order")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", update.OrderID))
	}

	applied, err := r.upsertTransaction(ctx, gatewayName, sub, update)
	if err != nil {
		return r.swallow(ctx, gatewayName, "transaction upsert failed", err), nil
	}

	action := update.Action
	if !applied {
		// Stale delivery behind a terminal status: the raw payload is kept
		// for audit but the status and lifecycle stay untouched.
		action = ActionNone
	}

	switch action {
	case ActionActivate:
		input := subscriptions.ActivateInput{
			UserID:               sub.UserID,
			PlanName:             sub.PlanName,
			OrderID:              update.OrderID,
			Gateway:              gatewayName,
			GrossAmount:          sub.GrossAmount,
			GatewayTransactionID: update.GatewayTransactionID,
		}
		if _, err := r.lifecycle.Activate(ctx, input); err != nil {
			return r.swallow(ctx, gatewayName, "activation failed", err), nil
		}
	case ActionCancel:
		reason := fmt.Sprintf("gateway reported %s", update.Status)
		if err := r.lifecycle.Cancel(ctx, sub.UserID, reason); err != nil {
			return r.swallow(ctx, gatewayName, "cancellation failed", err), nil
		}
	}

	if update.GatewayTransactionID != nil {
		if err := r.lifecycle.AttachGatewayTransaction(ctx, update.OrderID, *update.GatewayTransactionID); err != nil {
			return r.swallow(ctx, gatewayName, "gateway transaction id update failed", err), nil
		}
	}

	r.metrics.IncApplied(gatewayName.String(), update.Status.String())
	return &Result{Success: true, Message: "callback processed"}, nil
}

// upsertTransaction writes the ledger row for this callback. The raw payload
// is stored on every delivery; the status only moves forward. The returned
// bool reports whether the status (and so the action) took effect.
func (r *Reconciler) upsertTransaction(ctx context.Context, gatewayName enums.PaymentGateway, sub *models.Subscription, update Update) (bool, error) {
	applied := true
	err := r.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.transactions.WithTx(tx)

		txn, err := repo.FindByOrderID(ctx, update.OrderID)
		if err != nil {
			return err
		}
		created := txn == nil
		if created {
			txn = &models.Transaction{
				OrderID:     update.OrderID,
				UserID:      sub.UserID,
				Gateway:     gatewayName,
				Status:      enums.TransactionStatusPending,
				GrossAmount: sub.GrossAmount,
			}
		}

		if txn.Status.CanTransitionTo(update.Status) {
			txn.Status = update.Status
		} else {
			applied = false
			if r.logg != nil {
				r.logg.Warn(ctx, fmt.Sprintf("ignoring status regression %s -> %s", txn.Status, update.Status))
			}
		}

		txn.RawPayload = update.Raw
		if update.PaymentType != nil {
			txn.PaymentType = update.PaymentType
		}
		if update.GatewayTransactionID != nil {
			txn.GatewayTransactionID = update.GatewayTransactionID
		}
		if update.TransactionTime != nil {
			txn.TransactionTime = update.TransactionTime
		}
		if update.SettlementTime != nil {
			txn.SettlementTime = update.SettlementTime
		}

		if created {
			return repo.Create(ctx, txn)
		}
		return repo.Update(ctx, txn)
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (r *Reconciler) swallow(ctx context.Context, gatewayName enums.PaymentGateway, msg string, err error) *Result {
	r.metrics.IncSwallowed(gatewayName.String())
	if r.logg != nil {
		r.logg.Error(ctx, msg, err)
	}
	return &Result{Success: false, Message: "callback accepted, processing deferred"}
}
