package transactions

import (
	"context"

	"gorm.io/gorm"

	"github.com/rakapradana/pustaka-backend/pkg/db/models"
)

// Repository handles the payment transaction ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) error
	Update(ctx context.Context, transaction *models.Transaction) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) Update(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Save(transaction).Error
}

func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*models.Transaction, error) {
	if orderID == "" {
		return nil, nil
	}
	var txn models.Transaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&txn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}
