package transactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rakapradana/pustaka-backend/pkg/db/models"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
)

// Service exposes ledger reads for the admin surface.
type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: repo}, nil
}

// Get loads one ledger entry by its order id.
func (s *Service) Get(ctx context.Context, orderID string) (*models.Transaction, error) {
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	txn, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("transaction %s not found", orderID))
	}
	return txn, nil
}
