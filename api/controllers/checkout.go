package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/rakapradana/pustaka-backend/api/middleware"
	"github.com/rakapradana/pustaka-backend/api/responses"
	"github.com/rakapradana/pustaka-backend/api/validators"
	checkoutsvc "github.com/rakapradana/pustaka-backend/internal/checkout"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

type checkoutService interface {
	Create(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error)
}

type checkoutRequest struct {
	PlanID  string `json:"plan_id" validate:"required"`
	Gateway string `json:"gateway,omitempty" validate:"omitempty,oneof=ipaymu midtrans"`
}

// Checkout opens a payment session for the authenticated user.
func Checkout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := identityFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			UserID: userID,
			Email:  middleware.EmailFromContext(r.Context()),
			PlanID: payload.PlanID,
		}
		if payload.Gateway != "" {
			gw, parseErr := enums.ParsePaymentGateway(payload.Gateway)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid gateway"))
				return
			}
			input.Gateway = gw
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func identityFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
