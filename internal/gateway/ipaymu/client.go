package ipaymu

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
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

// Client talks to the iPaymu v2 API. Requests and callbacks are authenticated
// with an HMAC-SHA256 signature over method:va:SHA256(body):apiKey.
type Client struct {
	va          string
	apiKey      string
	baseURL     string
	callbackURL string
	returnURL   string
	httpClient  *http.Client
}

func NewClient(cfg config.IPaymuConfig) (*Client, error) {
	if cfg.VA == "" {
		return nil, errors.New("ipaymu va is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("ipaymu api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		va:          cfg.VA,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		returnURL:   cfg.ReturnURL,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Name() enums.PaymentGateway {
	return enums.PaymentGatewayIPaymu
}

// Initiate opens a hosted redirect payment session.
func (c *Client) Initiate(ctx context.Context, order gateway.Order) (*gateway.Session, error) {
	payload := map[string]any{
		"product":       []string{order.Description},
		"qty":           []int{1},
		"price":         []int64{order.Amount},
		"referenceId":   order.OrderID,
		"buyerEmail":    []string{order.Email},
		"notifyUrl":     c.callbackURL,
		"returnUrl":     c.returnURL,
		"paymentMethod": "qris",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode ipaymu request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/payment", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build ipaymu request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("va", c.va)
	req.Header.Set("signature", c.Sign(http.MethodPost, body))
	req.Header.Set("timestamp", time.Now().UTC().Format("20060102150405"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ipaymu unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read ipaymu response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("ipaymu responded %d", resp.StatusCode))
	}

	var out struct {
		Status int `json:"Status"`
		Data   struct {
			SessionID string `json:"SessionID"`
			URL       string `json:"Url"`
		} `json:"Data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode ipaymu response")
	}
	if out.Status != 200 || out.Data.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ipaymu session creation failed")
	}

	return &gateway.Session{
		Token:       out.Data.SessionID,
		RedirectURL: out.Data.URL,
		Raw:         json.RawMessage(raw),
	}, nil
}

// Sign computes the request signature for the given method and JSON body.
func (c *Client) Sign(method string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	stringToSign := fmt.Sprintf("%s:%s:%s:%s",
		strings.ToUpper(method),
		c.va,
		hex.EncodeToString(bodyHash[:]),
		c.apiKey,
	)
	mac := hmac.New(sha256.New, []byte(c.apiKey))
	mac.Write([]byte(stringToSign))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback recomputes the signature from the raw callback body and
// compares it to the header value in constant time.
func (c *Client) VerifyCallback(body []byte, headerSignature string) bool {
	if headerSignature == "" {
		return false
	}
	expected := c.Sign(http.MethodPost, body)
	return hmac.Equal([]byte(expected), []byte(headerSignature))
}
