package gateway

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/rakapradana/pustaka-backend/pkg/enums"
)

// Order carries everything a gateway needs to open a hosted payment session.
type Order struct {
	OrderID     string
	UserID      uuid.UUID
	Email       string
	PlanID      string
	Description string
	// Amount is in IDR minor units.
	Amount int64
}

// Session is the gateway's answer to an initiation call. Raw keeps the
// provider response verbatim for audit.
type Session struct {
	Token       string
	RedirectURL string
	Raw         json.RawMessage
}

// Client is the capability shared by both payment providers. Signature
// verification is not part of this interface: each provider's callback signs
// different inputs, so verification lives on the concrete types.
type Client interface {
	Name() enums.PaymentGateway
	Initiate(ctx context.Context, order Order) (*Session, error)
}
