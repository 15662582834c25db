package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/rakapradana/pustaka-backend/api/responses"
	"github.com/rakapradana/pustaka-backend/internal/webhooks"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/logger"
)

type ipaymuProcessor interface {
	Process(ctx context.Context, body []byte, headerSignature string) (*webhooks.Result, error)
}

type midtransProcessor interface {
	Process(ctx context.Context, body []byte) (*webhooks.Result, error)
}

// IPaymuWebhook receives iPaymu payment callbacks. Anything past the
// authenticity checks answers 200 so the gateway stops retrying.
func IPaymuWebhook(svc ipaymuProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		result, err := svc.Process(r.Context(), body, r.Header.Get("signature"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteGatewayAck(w, result.Success, result.Message)
	}
}

// MidtransWebhook receives Midtrans payment notifications.
func MidtransWebhook(svc midtransProcessor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		result, err := svc.Process(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteGatewayAck(w, result.Success, result.Message)
	}
}
