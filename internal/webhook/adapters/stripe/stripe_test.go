package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
	webhookdomain "github.com/youthbridge/youthbridge/internal/webhook/domain"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	header := buildStripeSignatureHeader(secret, payload, timestamp)
	reqHeader := http.Header{}
	reqHeader.Set("Stripe-Signature", header)

	adapter := NewAdapter(secret)
	if err := adapter.Verify(context.Background(), payload, reqHeader); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	reqHeader.Set("Stripe-Signature", buildStripeSignatureHeader("wrong", payload, timestamp))
	if err := adapter.Verify(context.Background(), payload, reqHeader); !errors.Is(err, webhookdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	reqHeader.Del("Stripe-Signature")
	if err := adapter.Verify(context.Background(), payload, reqHeader); !errors.Is(err, webhookdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for missing header, got %v", err)
	}

	// An unset secret must never degrade to accepting everything.
	unconfigured := NewAdapter("")
	reqHeader.Set("Stripe-Signature", header)
	if err := unconfigured.Verify(context.Background(), payload, reqHeader); !errors.Is(err, webhookdomain.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature without a secret, got %v", err)
	}
}

func TestParseCheckoutSessionEvents(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	recordID := node.Generate()
	created := time.Now().UTC().Unix()

	adapter := NewAdapter("whsec_test")

	tests := []struct {
		name        string
		eventType   string
		wantOutcome string
	}{
		{name: "completed session", eventType: "checkout.session.completed", wantOutcome: reconciledomain.OutcomeCompleted},
		{name: "expired session", eventType: "checkout.session.expired", wantOutcome: reconciledomain.OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte(fmt.Sprintf(
				`{"id":"evt_1","type":"%s","created":%d,"data":{"object":{"id":"cs_1","amount_total":7500,"currency":"usd","created":%d,"metadata":{"booking_id":"%s"}}}}`,
				tt.eventType, created, created, recordID,
			))

			event, err := adapter.Parse(context.Background(), payload)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if event.Outcome != tt.wantOutcome {
				t.Fatalf("expected outcome %s, got %s", tt.wantOutcome, event.Outcome)
			}
			if event.PayableRecordID != recordID {
				t.Fatalf("expected record %s, got %s", recordID, event.PayableRecordID)
			}
			if event.AmountCents != 7500 {
				t.Fatalf("expected amount 7500, got %d", event.AmountCents)
			}
			if event.Currency != "USD" {
				t.Fatalf("expected currency USD, got %s", event.Currency)
			}
		})
	}
}

func TestParseIgnoresUnrelatedEvents(t *testing.T) {
	adapter := NewAdapter("whsec_test")

	payload := []byte(`{"id":"evt_2","type":"invoice.paid","data":{"object":{}}}`)
	if _, err := adapter.Parse(context.Background(), payload); !errors.Is(err, webhookdomain.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored, got %v", err)
	}
}

func TestParseMissingBookingMetadata(t *testing.T) {
	adapter := NewAdapter("whsec_test")

	payload := []byte(`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"id":"cs_1","amount_total":7500,"currency":"usd","metadata":{}}}}`)
	if _, err := adapter.Parse(context.Background(), payload); !errors.Is(err, reconciledomain.ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}
}

func buildStripeSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}
