package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/youthbridge/youthbridge/internal/observability/metrics"
)

type stripeCheckoutSession struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type stripeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
}

func newStripeClient(apiKey string, timeout time.Duration, m *metrics.Metrics) *stripeClient {
	return &stripeClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: timeout},
		metrics: m,
	}
}

type stripeSessionParams struct {
	amountCents int64
	currency    string
	productName string
	successURL  string
	cancelURL   string
	metadata    map[string]string
	recordID    string
}

func (c *stripeClient) createCheckoutSession(ctx context.Context, params stripeSessionParams) (stripeCheckoutSession, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("payment_method_types[]", "card")
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(params.currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.amountCents, 10))
	values.Set("line_items[0][price_data][product_data][name]", params.productName)
	values.Set("success_url", params.successURL)
	values.Set("cancel_url", params.cancelURL)
	for key, value := range params.metadata {
		values.Set("metadata["+key+"]", value)
	}

	return c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", "create_checkout_session", values, "record:"+params.recordID)
}

func (c *stripeClient) doRequest(
	ctx context.Context,
	method string,
	path string,
	operation string,
	values url.Values,
	idempotencyKey string,
) (stripeCheckoutSession, error) {
	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return stripeCheckoutSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	c.metrics.ObserveProviderAPI("stripe", operation, time.Since(start).Seconds())
	if err != nil {
		return stripeCheckoutSession{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return stripeCheckoutSession{}, errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return stripeCheckoutSession{}, errors.New(message)
	}

	var session stripeCheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return stripeCheckoutSession{}, err
	}
	if session.ID == "" {
		return stripeCheckoutSession{}, errors.New("stripe_response_invalid")
	}
	return session, nil
}
