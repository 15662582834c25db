package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/internal/audit"
	"github.com/rakapradana/pustaka-backend/internal/gateway"
	"github.com/rakapradana/pustaka-backend/internal/plans"
	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	"github.com/rakapradana/pustaka-backend/internal/transactions"
	"github.com/rakapradana/pustaka-backend/pkg/config"
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

// Input is a validated checkout request.
type Input struct {
	UserID  uuid.UUID
	Email   string
	PlanID  string
	Gateway enums.PaymentGateway
}

// Result carries what the client needs to complete payment.
type Result struct {
	OrderID     string               `json:"order_id"`
	PlanID      string               `json:"plan_id"`
	GrossAmount int64                `json:"gross_amount"`
	Gateway     enums.PaymentGateway `json:"gateway"`
	Token       string               `json:"token,omitempty"`
	RedirectURL string               `json:"redirect_url,omitempty"`
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Subscriptions     subscriptions.Repository
	Transactions      transactions.Repository
	Gateways          []gateway.Client
	TransactionRunner txRunner
	Audit             auditRecorder
	Config            config.CheckoutConfig
	Logger            *logger.Logger
}

// Service opens payment sessions and records the pending purchase.
type Service struct {
	subscriptions subscriptions.Repository
	transactions  transactions.Repository
	gateways      map[enums.PaymentGateway]gateway.Client
	txRunner      txRunner
	audit         auditRecorder
	cfg           config.CheckoutConfig
	logg          *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, errors.New("subscriptions repo is required")
	}
	if params.Transactions == nil {
		return nil, errors.New("transactions repo is required")
	}
	if len(params.Gateways) == 0 {
		return nil, errors.New("at least one gateway client is required")
	}
	if params.TransactionRunner == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Audit == nil {
		return nil, errors.New("audit recorder is required")
	}

	clients := make(map[enums.PaymentGateway]gateway.Client, len(params.Gateways))
	for _, client := range params.Gateways {
		clients[client.Name()] = client
	}

	return &Service{
		subscriptions: params.Subscriptions,
		transactions:  params.Transactions,
		gateways:      clients,
		txRunner:      params.TransactionRunner,
		audit:         params.Audit,
		cfg:           params.Config,
		logg:          params.Logger,
	}, nil
}

// Create validates the request, opens a gateway session and commits the
// pending subscription and ledger rows together. The gateway call happens
// before the database transaction so a provider failure leaves no state
// behind.
func (s *Service) Create(ctx context.Context, input Input) (*Result, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	def, ok := plans.Lookup(input.PlanID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown plan %q", input.PlanID))
	}

	gatewayName := input.Gateway
	if gatewayName == "" {
		gatewayName = enums.PaymentGateway(s.cfg.DefaultGateway)
	}
	client, ok := s.gateways[gatewayName]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported gateway %q", gatewayName))
	}

	existing, err := s.subscriptions.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == enums.SubscriptionStatusActive &&
		existing.EndDate != nil && time.Now().UTC().Before(*existing.EndDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an active subscription already exists")
	}

	orderID := "PST-" + uuid.NewString()
	session, err := client.Initiate(ctx, gateway.Order{
		OrderID:     orderID,
		UserID:      input.UserID,
		Email:       input.Email,
		PlanID:      def.ID,
		Description: fmt.Sprintf("Pustaka %s subscription", def.DisplayName),
		Amount:      def.PriceMinorUnits,
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithGateway(ctx, gatewayName.String()), "gateway session failed", err)
		}
		return nil, err
	}

	gross := decimal.NewFromInt(def.PriceMinorUnits)
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		subRepo := s.subscriptions.WithTx(tx)

		sub, err := subRepo.FindByUserID(ctx, input.UserID)
		if err != nil {
			return err
		}
		created := sub == nil
		if created {
			sub = &models.Subscription{UserID: input.UserID}
		}
		sub.Status = enums.SubscriptionStatusPending
		sub.PlanName = def.ID
		sub.OrderID = orderID
		sub.Gateway = gatewayName
		sub.StartDate = nil
		sub.EndDate = nil
		sub.GrossAmount = gross
		sub.GatewayTransactionID = nil

		if created {
			if err := subRepo.Create(ctx, sub); err != nil {
				return err
			}
		} else if err := subRepo.Update(ctx, sub); err != nil {
			return err
		}

		txn := &models.Transaction{
			OrderID:     orderID,
			UserID:      input.UserID,
			Gateway:     gatewayName,
			Status:      enums.TransactionStatusPending,
			GrossAmount: gross,
			RawPayload:  session.Raw,
		}
		if err := s.transactions.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}

		return s.audit.RecordTx(ctx, tx, audit.Entry{
			Type:        enums.AdminEventCheckoutCreated,
			Title:       "Checkout Created",
			Description: fmt.Sprintf("Checkout for plan %s via %s", def.ID, gatewayName),
			Metadata: map[string]any{
				"user_id":  input.UserID.String(),
				"plan":     def.ID,
				"order_id": orderID,
				"gateway":  gatewayName.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		OrderID:     orderID,
		PlanID:      def.ID,
		GrossAmount: def.PriceMinorUnits,
		Gateway:     gatewayName,
		Token:       session.Token,
		RedirectURL: session.RedirectURL,
	}, nil
}
