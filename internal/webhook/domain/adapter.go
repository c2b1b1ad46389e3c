package domain

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
)

// Adapter verifies a provider callback and translates it into the canonical
// reconciliation event. Verify must pass before Parse output is trusted.
type Adapter interface {
	Provider() string
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*reconciledomain.ReconciliationEvent, error)
}

type Service interface {
	// IngestWebhook verifies and applies one provider webhook delivery.
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
	// VerifyCapturedOrder handles the client-asserted PayPal capture: the
	// order is re-read from PayPal and only a server-confirmed COMPLETED
	// capture for the claimed record is applied.
	VerifyCapturedOrder(ctx context.Context, orderID string, recordID snowflake.ID) error
}
