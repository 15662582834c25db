package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/metrics"
)

type midtransVerifier interface {
	VerifyCallback(orderID, statusCode, grossAmount, signatureKey string) bool
}

// MidtransService verifies and reconciles Midtrans payment notifications.
// The signature travels inside the JSON body as signature_key.
type MidtransService struct {
	verifier   midtransVerifier
	reconciler *Reconciler
	metrics    *metrics.WebhookMetrics
}

// NewMidtransService builds the Midtrans notification service.
func NewMidtransService(verifier midtransVerifier, reconciler *Reconciler, m *metrics.WebhookMetrics) (*MidtransService, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	if reconciler == nil {
		return nil, errors.New("reconciler is required")
	}
	if m == nil {
		return nil, errors.New("metrics is required")
	}
	return &MidtransService{verifier: verifier, reconciler: reconciler, metrics: m}, nil
}

type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
	SettlementTime    string `json:"settlement_time"`
	TransactionID     string `json:"transaction_id"`
}

const midtransTimeLayout = "2006-01-02 15:04:05"

// Process parses the notification, verifies signature_key and hands the
// update to the reconciler.
func (s *MidtransService) Process(ctx context.Context, body []byte) (*Result, error) {
	s.metrics.IncReceived(enums.PaymentGatewayMidtrans.String())

	var notification midtransNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		s.metrics.IncRejected(enums.PaymentGatewayMidtrans.String(), "malformed_body")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed notification body")
	}

	ok := s.verifier.VerifyCallback(
		notification.OrderID,
		notification.StatusCode,
		notification.GrossAmount,
		notification.SignatureKey,
	)
	if !ok {
		s.metrics.IncRejected(enums.PaymentGatewayMidtrans.String(), "signature")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "invalid notification signature")
	}

	status, action := mapMidtransStatus(notification.TransactionStatus, notification.FraudStatus)
	update := Update{
		OrderID:         notification.OrderID,
		Status:          status,
		Action:          action,
		Raw:             json.RawMessage(body),
		TransactionTime: parseMidtransTime(notification.TransactionTime),
		SettlementTime:  parseMidtransTime(notification.SettlementTime),
	}
	if notification.TransactionID != "" {
		update.GatewayTransactionID = &notification.TransactionID
	}
	if notification.PaymentType != "" {
		update.PaymentType = &notification.PaymentType
	}

	return s.reconciler.Apply(ctx, enums.PaymentGatewayMidtrans, update)
}

func mapMidtransStatus(transactionStatus, fraudStatus string) (enums.TransactionStatus, Action) {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "accept" {
			return enums.TransactionStatusSettlement, ActionActivate
		}
		return enums.TransactionStatusPending, ActionNone
	case "settlement":
		return enums.TransactionStatusSettlement, ActionActivate
	case "pending":
		return enums.TransactionStatusPending, ActionNone
	case "deny":
		return enums.TransactionStatusDeny, ActionCancel
	case "cancel":
		return enums.TransactionStatusCancel, ActionCancel
	case "expire":
		return enums.TransactionStatusExpire, ActionCancel
	case "refund", "partial_refund":
		return enums.TransactionStatusCancel, ActionCancel
	}
	return enums.TransactionStatusPending, ActionNone
}

func parseMidtransTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(midtransTimeLayout, value)
	if err != nil {
		return nil
	}
	return &parsed
}
