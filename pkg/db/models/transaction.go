package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/pkg/enums"
)

// Transaction is the per-purchase ledger row, upserted by OrderID. RawPayload
// keeps the last gateway callback body verbatim for audit and replay.
type Transaction struct {
	ID                   uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              string                  `gorm:"column:order_id;not null;uniqueIndex:uq_transactions_order_id"`
	UserID               uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Gateway              enums.PaymentGateway    `gorm:"column:gateway;type:payment_gateway;not null"`
	Status               enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'pending'"`
	GrossAmount          decimal.Decimal         `gorm:"column:gross_amount;type:numeric(14,2);not null"`
	PaymentType          *string                 `gorm:"column:payment_type"`
	GatewayTransactionID *string                 `gorm:"column:gateway_transaction_id"`
	TransactionTime      *time.Time              `gorm:"column:transaction_time"`
	SettlementTime       *time.Time              `gorm:"column:settlement_time"`
	RawPayload           json.RawMessage         `gorm:"column:raw_payload;type:jsonb"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id so inserts do not depend on a database default.
func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
