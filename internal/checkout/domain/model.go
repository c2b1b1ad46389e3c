package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"
)

type InitiateRequest struct {
	PayableRecordID snowflake.ID
	Provider        string
}

// Session is what the client needs to continue the payment: a redirect URL
// for Stripe Checkout, or an order id for the PayPal JS SDK.
type Session struct {
	Provider string `json:"provider"`
	URL      string `json:"url,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
}

type Service interface {
	Initiate(ctx context.Context, req InitiateRequest) (*Session, error)
}
