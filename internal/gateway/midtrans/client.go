package midtrans

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rakapradana/pustaka-backend/internal/gateway"
	"github.com/rakapradana/pustaka-backend/pkg/config"
	pkgerrors "github.com/rakapradana/pustaka-backend/pkg/errors"
	"github.com/rakapradana/pustaka-backend/pkg/enums"
)

var _ gateway.Client = (*Client)(nil)

// Client talks to the Midtrans Snap API. Callbacks carry a signature_key that
// is the SHA-512 hex digest of order_id + status_code + gross_amount + serverKey.
type Client struct {
	serverKey  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.MidtransConfig) (*Client, error) {
	if cfg.ServerKey == "" {
		return nil, errors.New("midtrans server key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		serverKey:  cfg.ServerKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Name() enums.PaymentGateway {
	return enums.PaymentGatewayMidtrans
}

// Initiate creates a Snap transaction and returns the token plus redirect URL.
func (c *Client) Initiate(ctx context.Context, order gateway.Order) (*gateway.Session, error) {
	payload := map[string]any{
		"transaction_details": map[string]any{
			"order_id":     order.OrderID,
			"gross_amount": order.Amount,
		},
		"customer_details": map[string]any{
			"email": order.Email,
		},
		"item_details": []map[string]any{{
			"id":       order.PlanID,
			"price":    order.Amount,
			"quantity": 1,
			"name":     order.Description,
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode midtrans request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build midtrans request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.serverKey+":")))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "midtrans unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read midtrans response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("midtrans responded %d", resp.StatusCode))
	}

	var out struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode midtrans response")
	}
	if out.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "midtrans session creation failed")
	}

	return &gateway.Session{
		Token:       out.Token,
		RedirectURL: out.RedirectURL,
		Raw:         json.RawMessage(raw),
	}, nil
}

// Sign computes the callback signature for the given notification fields.
func (c *Client) Sign(orderID, statusCode, grossAmount string) string {
	digest := sha512.Sum512([]byte(orderID + statusCode + grossAmount + c.serverKey))
	return hex.EncodeToString(digest[:])
}

// VerifyCallback recomputes the signature from notification fields and
// compares it to the supplied signature_key in constant time.
func (c *Client) VerifyCallback(orderID, statusCode, grossAmount, signatureKey string) bool {
	if signatureKey == "" {
		return false
	}
	expected := c.Sign(orderID, statusCode, grossAmount)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}
