package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rakapradana/pustaka-backend/internal/webhooks"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
)

type stubIPaymuProcessor struct {
	result    *webhooks.Result
	err       error
	body      []byte
	signature string
}

func (s *stubIPaymuProcessor) Process(ctx context.Context, body []byte, headerSignature string) (*webhooks.Result, error) {
	s.body = body
	s.signature = headerSignature
	return s.result, s.err
}

type stubMidtransProcessor struct {
	result *webhooks.Result
	err    error
}

func (s *stubMidtransProcessor) Process(ctx context.Context, body []byte) (*webhooks.Result, error) {
	return s.result, s.err
}

func TestIPaymuWebhookAcks(t *testing.T) {
	svc := &stubIPaymuProcessor{result: &webhooks.Result{Success: true, Message: "callback processed"}}
	handler := IPaymuWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/ipaymu", strings.NewReader(`{"reference_id":"PST-1"}`))
	req.Header.Set("signature", "abc123")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.signature != "abc123" {
		t.Fatalf("unexpected signature header: %s", svc.signature)
	}
	if string(svc.body) != `{"reference_id":"PST-1"}` {
		t.Fatalf("unexpected body: %s", svc.body)
	}

	var ack struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Success {
		t.Fatal("expected success ack")
	}
}

func TestIPaymuWebhookSwallowedFailureStillAcks(t *testing.T) {
	svc := &stubIPaymuProcessor{result: &webhooks.Result{Success: false, Message: "callback accepted, processing deferred"}}
	handler := IPaymuWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/ipaymu", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var ack struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Success {
		t.Fatal("expected unsuccessful ack body")
	}
}

func TestIPaymuWebhookBadSignature(t *testing.T) {
	svc := &stubIPaymuProcessor{err: pkgerrors.New(pkgerrors.CodeSignature, "signature mismatch")}
	handler := IPaymuWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/ipaymu", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestMidtransWebhookAcks(t *testing.T) {
	svc := &stubMidtransProcessor{result: &webhooks.Result{Success: true, Message: "callback processed"}}
	handler := MidtransWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", strings.NewReader(`{"order_id":"PST-1"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMidtransWebhookUnknownOrder(t *testing.T) {
	svc := &stubMidtransProcessor{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	handler := MidtransWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", strings.NewReader(`{"order_id":"PST-x"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
