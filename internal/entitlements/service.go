package entitlements

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

type subscriptionReader interface {
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Decision is the answer to a single content access check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Service answers whether a user may read premium content. Any uncertainty
// resolves to denial.
type Service struct {
	subscriptions subscriptionReader
	logg          *logger.Logger
}

// ServiceParams groups dependencies for the entitlement service.
type ServiceParams struct {
	Subscriptions subscriptionReader
	Logger        *logger.Logger
}

// NewService builds the entitlement gate.
func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, errors.New("subscription reader is required")
	}
	return &Service{
		subscriptions: params.Subscriptions,
		logg:          params.Logger,
	}, nil
}

// HasAccess reports whether the user holds an active subscription. A read
// failure denies access and surfaces the error to the caller.
func (s *Service) HasAccess(ctx context.Context, userID uuid.UUID) (Decision, error) {
	if userID == uuid.Nil {
		return Decision{Allowed: false, Reason: "unknown user"}, nil
	}

	active, err := s.subscriptions.IsActive(ctx, userID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, userID.String()), "entitlement check failed", err)
		}
		return Decision{Allowed: false, Reason: "subscription lookup failed"}, err
	}
	if !active {
		return Decision{Allowed: false, Reason: "no active subscription"}, nil
	}
	return Decision{Allowed: true}, nil
}
