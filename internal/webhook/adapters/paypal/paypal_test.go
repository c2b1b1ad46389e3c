package paypal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
	webhookdomain "github.com/youthbridge/youthbridge/internal/webhook/domain"
)

func TestParseResolvesCustomIDFromEitherLocation(t *testing.T) {
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	recordID := node.Generate()

	adapter := NewAdapter(nil)

	tests := []struct {
		name    string
		payload string
	}{{
		// Capture events carry the reference on the resource itself.
		name: "capture event",
		payload: fmt.Sprintf(
			`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","create_time":"2026-03-01T12:00:00Z","resource":{"id":"cap_1","status":"COMPLETED","custom_id":"%s","amount":{"currency_code":"USD","value":"75.00"}}}`,
			recordID,
		),
	}, {
		// Order events nest it under the purchase unit.
		name: "order event",
		payload: fmt.Sprintf(
			`{"id":"WH-2","event_type":"CHECKOUT.ORDER.APPROVED","create_time":"2026-03-01T12:00:00Z","resource":{"id":"ord_1","status":"APPROVED","purchase_units":[{"custom_id":"%s","amount":{"currency_code":"USD","value":"75.00"}}]}}`,
			recordID,
		),
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := adapter.Parse(context.Background(), []byte(tt.payload))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if event.PayableRecordID != recordID {
				t.Fatalf("expected record %s, got %s", recordID, event.PayableRecordID)
			}
			if event.Outcome != reconciledomain.OutcomeCompleted {
				t.Fatalf("expected completed outcome, got %s", event.Outcome)
			}
		})
	}
}

func TestParseMissingCustomID(t *testing.T) {
	adapter := NewAdapter(nil)

	payload := `{"id":"WH-3","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"cap_2","amount":{"currency_code":"USD","value":"75.00"}}}`
	if _, err := adapter.Parse(context.Background(), []byte(payload)); !errors.Is(err, reconciledomain.ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}
}

func TestParseDeniedCaptureFails(t *testing.T) {
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	adapter := NewAdapter(nil)
	payload := fmt.Sprintf(
		`{"id":"WH-4","event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":"cap_3","custom_id":"%s","amount":{"currency_code":"USD","value":"25.00"}}}`,
		node.Generate(),
	)

	event, err := adapter.Parse(context.Background(), []byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Outcome != reconciledomain.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", event.Outcome)
	}
}

func TestParseIgnoresUnrelatedEvents(t *testing.T) {
	adapter := NewAdapter(nil)

	payload := `{"id":"WH-5","event_type":"BILLING.SUBSCRIPTION.CREATED","resource":{}}`
	if _, err := adapter.Parse(context.Background(), []byte(payload)); !errors.Is(err, webhookdomain.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored, got %v", err)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{value: "75.00", want: 7500},
		{value: "75", want: 7500},
		{value: "75.5", want: 7550},
		{value: "0.99", want: 99},
		{value: "", want: 0},
		{value: "abc", want: 0},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.value); got != tt.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
