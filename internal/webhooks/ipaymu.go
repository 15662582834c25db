package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/metrics"
)

type ipaymuVerifier interface {
	VerifyCallback(body []byte, headerSignature string) bool
}

// IPaymuService verifies and reconciles iPaymu payment callbacks. The HMAC
// signature arrives in the request's signature header and covers the raw body.
type IPaymuService struct {
	verifier   ipaymuVerifier
	reconciler *Reconciler
	metrics    *metrics.WebhookMetrics
}

// NewIPaymuService builds the iPaymu callback service.
func NewIPaymuService(verifier ipaymuVerifier, reconciler *Reconciler, m *metrics.WebhookMetrics) (*IPaymuService, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	if reconciler == nil {
		return nil, errors.New("reconciler is required")
	}
	if m == nil {
		return nil, errors.New("metrics is required")
	}
	return &IPaymuService{verifier: verifier, reconciler: reconciler, metrics: m}, nil
}

type ipaymuCallback struct {
	ReferenceID   string `json:"reference_id"`
	Status        string `json:"status"`
	StatusCode    string `json:"status_code"`
	TransactionID string `json:"transaction_id"`
	Via           string `json:"via"`
	Channel       string `json:"channel"`
	Amount        string `json:"amount"`
}

// Process verifies the signature, maps the provider status and hands the
// update to the reconciler.
func (s *IPaymuService) Process(ctx context.Context, body []byte, headerSignature string) (*Result, error) {
	s.metrics.IncReceived(enums.PaymentGatewayIPaymu.String())

	if !s.verifier.VerifyCallback(body, headerSignature) {
		s.metrics.IncRejected(enums.PaymentGatewayIPaymu.String(), "signature")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid callback signature")
	}

	var callback ipaymuCallback
	if err := json.Unmarshal(body, &callback); err != nil {
		// The signature already proved the sender; ack so iPaymu stops
		// retrying a body we will never parse.
		s.metrics.IncSwallowed(enums.PaymentGatewayIPaymu.String())
		return &Result{Success: false, Message: "callback accepted, processing deferred"}, nil
	}

	status, action := mapIPaymuStatus(callback.Status, callback.StatusCode)
	update := Update{
		OrderID: callback.ReferenceID,
		Status:  status,
		Action:  action,
		Raw:     json.RawMessage(body),
	}
	if callback.TransactionID != "" {
		update.GatewayTransactionID = &callback.TransactionID
	}
	if via := paymentChannel(callback); via != "" {
		update.PaymentType = &via
	}

	return s.reconciler.Apply(ctx, enums.PaymentGatewayIPaymu, update)
}

func paymentChannel(callback ipaymuCallback) string {
	if callback.Via != "" && callback.Channel != "" {
		return callback.Via + "/" + callback.Channel
	}
	if callback.Via != "" {
		return callback.Via
	}
	return callback.Channel
}

func mapIPaymuStatus(status, code string) (enums.TransactionStatus, Action) {
	switch strings.ToLower(status) {
	case "paid", "success", "berhasil", "settlement":
		return enums.TransactionStatusSettlement, ActionActivate
	case "pending":
		return enums.TransactionStatusPending, ActionNone
	case "expired", "expire":
		return enums.TransactionStatusExpire, ActionCancel
	case "failed", "deny", "denied":
		return enums.TransactionStatusDeny, ActionCancel
	case "refund", "refunded":
		return enums.TransactionStatusCancel, ActionCancel
	case "cancel", "canceled", "cancelled":
		return enums.TransactionStatusCancel, ActionCancel
	}

	switch code {
	case "1":
		return enums.TransactionStatusSettlement, ActionActivate
	case "0":
		return enums.TransactionStatusPending, ActionNone
	case "2":
		return enums.TransactionStatusExpire, ActionCancel
	case "3":
		return enums.TransactionStatusDeny, ActionCancel
	case "4":
		return enums.TransactionStatusCancel, ActionCancel
	}

	return enums.TransactionStatusPending, ActionNone
}
