package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/youthbridge/youthbridge/internal/config"
	"github.com/youthbridge/youthbridge/internal/observability/metrics"
	"go.uber.org/fx"
)

var (
	ErrNotConfigured = errors.New("paypal_not_configured")
	ErrRequestFailed = errors.New("paypal_request_failed")
)

const (
	OrderStatusCompleted   = "COMPLETED"
	CaptureStatusCompleted = "COMPLETED"
)

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type Capture struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	CustomID string `json:"custom_id"`
	Amount   Amount `json:"amount"`
}

type PurchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	CustomID    string `json:"custom_id,omitempty"`
	Amount      Amount `json:"amount"`
	Payments    *struct {
		Captures []Capture `json:"captures"`
	} `json:"payments,omitempty"`
}

type Order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Client talks to the PayPal Orders and Webhooks REST APIs. Every call is
// bounded by the configured provider timeout.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	webhookID    string
	http         *http.Client
	metrics      *metrics.Metrics

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var Module = fx.Module("paypal.client",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Cfg     config.Config
	Metrics *metrics.Metrics `optional:"true"`
}

func New(p Params) *Client {
	return &Client{
		baseURL:      strings.TrimRight(p.Cfg.PayPalBaseURL, "/"),
		clientID:     p.Cfg.PayPalClientID,
		clientSecret: p.Cfg.PayPalClientSecret,
		webhookID:    p.Cfg.PayPalWebhookID,
		http:         &http.Client{Timeout: p.Cfg.ProviderTimeout},
		metrics:      p.Metrics,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.clientID != "" && c.clientSecret != ""
}

// CreateOrder creates a CAPTURE-intent order carrying the payable record id
// as custom_id so the webhook can find its way back.
func (c *Client) CreateOrder(ctx context.Context, customID string, amountCents int64, currency string) (*Order, error) {
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"custom_id": customID,
				"amount": map[string]string{
					"currency_code": strings.ToUpper(currency),
					"value":         FormatAmount(amountCents),
				},
			},
		},
	}

	var order Order
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", "create_order", body, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, ErrRequestFailed
	}
	return &order, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrRequestFailed
	}
	var order Order
	if err := c.doJSON(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), "get_order", nil, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, ErrRequestFailed
	}
	return &order, nil
}

// VerifyWebhookSignature asks PayPal to verify a webhook delivery. Anything
// but an explicit SUCCESS is treated as a failed verification.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	if c.webhookID == "" {
		return false, ErrNotConfigured
	}
	req := map[string]any{
		"transmission_id":   headers.Get("Paypal-Transmission-Id"),
		"transmission_time": headers.Get("Paypal-Transmission-Time"),
		"cert_url":          headers.Get("Paypal-Cert-Url"),
		"auth_algo":         headers.Get("Paypal-Auth-Algo"),
		"transmission_sig":  headers.Get("Paypal-Transmission-Sig"),
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(body),
	}

	var resp struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", "verify_webhook_signature", req, &resp); err != nil {
		return false, err
	}
	return resp.VerificationStatus == "SUCCESS", nil
}

func (c *Client) doJSON(ctx context.Context, method, path, operation string, body any, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveProviderAPI("paypal", operation, time.Since(start).Seconds())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%w: %s", ErrRequestFailed, apiErr.Message)
		}
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveProviderAPI("paypal", "oauth_token", time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: token status %d", ErrRequestFailed, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", ErrRequestFailed
	}

	c.mu.Lock()
	c.token = token.AccessToken
	// Refresh a minute early so in-flight calls never carry a stale token.
	c.tokenExp = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	c.mu.Unlock()

	return token.AccessToken, nil
}

// FormatAmount renders integer cents as the decimal string PayPal expects.
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
