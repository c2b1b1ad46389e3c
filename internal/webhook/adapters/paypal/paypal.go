package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	paypalapi "github.com/youthbridge/youthbridge/internal/paypal"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
	webhookdomain "github.com/youthbridge/youthbridge/internal/webhook/domain"
)

type Adapter struct {
	client *paypalapi.Client
}

func NewAdapter(client *paypalapi.Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Provider() string {
	return "paypal"
}

// Verify asks PayPal's verification API whether the delivery is authentic.
// Any transport error fails closed.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	ok, err := a.client.VerifyWebhookSignature(ctx, headers, payload)
	if err != nil || !ok {
		return webhookdomain.ErrInvalidSignature
	}
	return nil
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*reconciledomain.ReconciliationEvent, error) {
	var event paypalEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, webhookdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, webhookdomain.ErrInvalidEvent
	}

	var outcome string
	switch strings.TrimSpace(event.EventType) {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.APPROVED":
		outcome = reconciledomain.OutcomeCompleted
	case "PAYMENT.CAPTURE.DENIED":
		outcome = reconciledomain.OutcomeFailed
	default:
		return nil, webhookdomain.ErrEventIgnored
	}

	recordID, err := resolveCustomID(event.Resource)
	if err != nil {
		return nil, err
	}

	return &reconciledomain.ReconciliationEvent{
		Provider:        "paypal",
		ProviderEventID: event.ID,
		EventType:       event.EventType,
		Outcome:         outcome,
		PayableRecordID: recordID,
		AmountCents:     ParseAmount(event.Resource.Amount.Value),
		Currency:        strings.ToUpper(strings.TrimSpace(event.Resource.Amount.CurrencyCode)),
		OccurredAt:      occurredAt(event.CreateTime),
		RawPayload:      payload,
	}, nil
}

type paypalEvent struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	CreateTime string         `json:"create_time"`
	Resource   paypalResource `json:"resource"`
}

type paypalResource struct {
	ID            string           `json:"id"`
	Status        string           `json:"status"`
	CustomID      string           `json:"custom_id"`
	Amount        paypalapi.Amount `json:"amount"`
	PurchaseUnits []struct {
		CustomID string           `json:"custom_id"`
		Amount   paypalapi.Amount `json:"amount"`
	} `json:"purchase_units"`
}

// resolveCustomID finds the payable record reference. Capture events carry
// it at resource.custom_id; order events nest it under the purchase unit.
func resolveCustomID(resource paypalResource) (snowflake.ID, error) {
	raw := strings.TrimSpace(resource.CustomID)
	if raw == "" && len(resource.PurchaseUnits) > 0 {
		raw = strings.TrimSpace(resource.PurchaseUnits[0].CustomID)
	}
	if raw == "" {
		return 0, reconciledomain.ErrUnresolvedReference
	}
	recordID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, reconciledomain.ErrUnresolvedReference
	}
	return recordID, nil
}

// ParseAmount converts PayPal's decimal string to integer cents. Malformed
// values yield 0, which the engine treats as "amount unknown".
func ParseAmount(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	whole, fraction, _ := strings.Cut(value, ".")
	var cents int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0
		}
		cents = cents*10 + int64(r-'0')
	}
	cents *= 100
	if fraction == "" {
		return cents
	}
	if len(fraction) > 2 {
		fraction = fraction[:2]
	}
	var frac int64
	for _, r := range fraction {
		if r < '0' || r > '9' {
			return 0
		}
		frac = frac*10 + int64(r-'0')
	}
	if len(fraction) == 1 {
		frac *= 10
	}
	return cents + frac
}

func occurredAt(createTime string) time.Time {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(createTime))
	if err != nil {
		return time.Now().UTC()
	}
	return parsed.UTC()
}
