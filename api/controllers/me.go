package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rakapradana/pustaka-backend/api/responses"
	"github.com/rakapradana/pustaka-backend/internal/entitlements"
	"github.com/rakapradana/pustaka-backend/internal/subscriptions"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

type subscriptionInfoReader interface {
	GetInfo(ctx context.Context, userID uuid.UUID) (*subscriptions.Info, error)
}

type entitlementChecker interface {
	HasAccess(ctx context.Context, userID uuid.UUID) (entitlements.Decision, error)
}

type subscriptionResponse struct {
	Status        string     `json:"status"`
	PlanID        string     `json:"plan_id"`
	OrderID       string     `json:"order_id"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	GrossAmount   string     `json:"gross_amount"`
	RemainingDays int        `json:"remaining_days"`
}

// MySubscription returns the caller's subscription state, or an empty body
// when they have never subscribed.
func MySubscription(svc subscriptionInfoReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := identityFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		info, err := svc.GetInfo(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if info == nil {
			responses.WriteSuccess(w, map[string]any{"subscription": nil})
			return
		}

		responses.WriteSuccess(w, map[string]any{"subscription": subscriptionResponse{
			Status:        info.Status.String(),
			PlanID:        info.PlanName,
			OrderID:       info.OrderID,
			StartDate:     info.StartDate,
			EndDate:       info.EndDate,
			GrossAmount:   info.GrossAmount.StringFixed(2),
			RemainingDays: info.RemainingDays,
		}})
	}
}

// MyEntitlement answers whether the caller may read premium content. Lookup
// failures still produce a denial body so clients fail closed.
func MyEntitlement(svc entitlementChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		userID, err := identityFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := svc.HasAccess(r.Context(), userID)
		if err != nil && logg != nil {
			logg.Error(r.Context(), "entitlement lookup failed", err)
		}

		responses.WriteSuccess(w, decision)
	}
}
