package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rakapradana/pustaka-backend/api/middleware"
	checkoutsvc "github.com/rakapradana/pustaka-backend/internal/checkout"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
)

type stubCheckoutService struct {
	result *checkoutsvc.Result
	err    error
	input  checkoutsvc.Input
	calls  int
}

func (s *stubCheckoutService) Create(ctx context.Context, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	s.calls++
	s.input = input
	return s.result, s.err
}

func TestCheckoutSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &stubCheckoutService{result: &checkoutsvc.Result{
		OrderID:     "PST-" + uuid.NewString(),
		PlanID:      "1month",
		GrossAmount: 25000,
		Gateway:     enums.PaymentGatewayMidtrans,
		Token:       "snap-token",
	}}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"plan_id":"1month"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.UserID != userID {
		t.Fatalf("unexpected user id: %s", svc.input.UserID)
	}
	if svc.input.PlanID != "1month" {
		t.Fatalf("unexpected plan id: %s", svc.input.PlanID)
	}

	var envelope struct {
		Data checkoutsvc.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != "snap-token" {
		t.Fatalf("unexpected token: %s", envelope.Data.Token)
	}
	if envelope.Data.OrderID != svc.result.OrderID {
		t.Fatalf("unexpected order id: %s", envelope.Data.OrderID)
	}
}

func TestCheckoutPassesExplicitGateway(t *testing.T) {
	svc := &stubCheckoutService{result: &checkoutsvc.Result{Gateway: enums.PaymentGatewayIPaymu}}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"plan_id":"3month","gateway":"ipaymu"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.input.Gateway != enums.PaymentGatewayIPaymu {
		t.Fatalf("unexpected gateway: %s", svc.input.Gateway)
	}
}

func TestCheckoutRequiresAuthenticatedUser(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"plan_id":"1month"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called, got %d calls", svc.calls)
	}
}

func TestCheckoutValidationError(t *testing.T) {
	handler := Checkout(&stubCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutRejectsUnknownGateway(t *testing.T) {
	svc := &stubCheckoutService{}
	handler := Checkout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"plan_id":"1month","gateway":"paypal"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called, got %d calls", svc.calls)
	}
}
