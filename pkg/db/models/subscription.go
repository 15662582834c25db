package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/pkg/enums"
)

// Subscription holds the single subscription row per user. EndDate is always
// derived from StartDate plus the plan duration at activation time.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID                `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_subscriptions_user_id"`
	Status               enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'pending'"`
	PlanName             string                   `gorm:"column:plan_name;not null"`
	OrderID              string                   `gorm:"column:order_id;not null;index"`
	Gateway              enums.PaymentGateway     `gorm:"column:gateway;type:payment_gateway;not null"`
	StartDate            *time.Time               `gorm:"column:start_date"`
	EndDate              *time.Time               `gorm:"column:end_date"`
	GrossAmount          decimal.Decimal          `gorm:"column:gross_amount;type:numeric(14,2);not null"`
	GatewayTransactionID *string                  `gorm:"column:gateway_transaction_id"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id so inserts do not depend on a database default.
func (s *Subscription) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
