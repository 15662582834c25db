package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
)

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, subscription *models.Subscription) error
	Update(ctx context.Context, subscription *models.Subscription) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Subscription, error)
	SetGatewayTransactionID(ctx context.Context, orderID, gatewayTransactionID string) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscription repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) Update(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*models.Subscription, error) {
	if orderID == "" {
		return nil, nil
	}
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) SetGatewayTransactionID(ctx context.Context, orderID, gatewayTransactionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("order_id = ?", orderID).
		Update("gateway_transaction_id", gatewayTransactionID).Error
}

// ExpireOverdue flips every overdue active subscription to expired in one
// statement and reports how many rows changed.
func (r *repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", enums.SubscriptionStatusActive, now).
		Update("status", enums.SubscriptionStatusExpired)
	return result.RowsAffected, result.Error
}

func (r *repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", enums.SubscriptionStatusPending, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}
