package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rakapradana/pustaka-backend/api/responses"
	"github.com/rakapradana/pustaka-backend/internal/audit"
	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
	"github.com/rakapradana/pustaka-backend/pkg/pagination"
)

type auditLister interface {
	List(ctx context.Context, params audit.ListQuery) ([]models.AdminEvent, *pagination.Cursor, error)
}

type transactionGetter interface {
	Get(ctx context.Context, orderID string) (*models.Transaction, error)
}

type adminEventResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListAdminEvents pages through the audit log, newest first.
func ListAdminEvents(svc auditLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		query := audit.ListQuery{}

		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			query.Limit = limit
		}

		if raw := r.URL.Query().Get("cursor"); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			query.Cursor = cursor
		}

		if raw := r.URL.Query().Get("type"); raw != "" {
			eventType, err := enums.ParseAdminEventType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event type"))
				return
			}
			query.Type = &eventType
		}

		events, next, err := svc.List(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]adminEventResponse, 0, len(events))
		for _, event := range events {
			out = append(out, adminEventResponse{
				ID:          event.ID,
				Type:        event.Type.String(),
				Title:       event.Title,
				Description: event.Description,
				Metadata:    event.Metadata,
				CreatedAt:   event.CreatedAt,
			})
		}

		body := map[string]any{"events": out}
		if next != nil {
			body["next_cursor"] = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, body)
	}
}

type transactionResponse struct {
	OrderID              string     `json:"order_id"`
	UserID               uuid.UUID  `json:"user_id"`
	Gateway              string     `json:"gateway"`
	Status               string     `json:"status"`
	GrossAmount          string     `json:"gross_amount"`
	PaymentType          *string    `json:"payment_type,omitempty"`
	GatewayTransactionID *string    `json:"gateway_transaction_id,omitempty"`
	TransactionTime      *time.Time `json:"transaction_time,omitempty"`
	SettlementTime       *time.Time `json:"settlement_time,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// GetTransaction returns one ledger row by order id.
func GetTransaction(svc transactionGetter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderId")
		txn, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transactionResponse{
			OrderID:              txn.OrderID,
			UserID:               txn.UserID,
			Gateway:              txn.Gateway.String(),
			Status:               txn.Status.String(),
			GrossAmount:          txn.GrossAmount.StringFixed(2),
			PaymentType:          txn.PaymentType,
			GatewayTransactionID: txn.GatewayTransactionID,
			TransactionTime:      txn.TransactionTime,
			SettlementTime:       txn.SettlementTime,
			CreatedAt:            txn.CreatedAt,
			UpdatedAt:            txn.UpdatedAt,
		})
	}
}
