package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/youthbridge/youthbridge/internal/observability/metrics"
	"github.com/youthbridge/youthbridge/internal/paypal"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
	"github.com/youthbridge/youthbridge/internal/webhook/adapters"
	paypaladapter "github.com/youthbridge/youthbridge/internal/webhook/adapters/paypal"
	webhookdomain "github.com/youthbridge/youthbridge/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Reconcile reconciledomain.Service
	Adapters  *adapters.Registry
	PayPal    *paypal.Client
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	reconcile reconciledomain.Service
	adapters  *adapters.Registry
	paypal    *paypal.Client
	metrics   *metrics.Metrics
}

func New(p Params) webhookdomain.Service {
	return &Service{
		log:       p.Log.Named("webhook.service"),
		reconcile: p.Reconcile,
		adapters:  p.Adapters,
		paypal:    p.PayPal,
		metrics:   p.Metrics,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	adapter, err := s.adapters.Get(provider)
	if err != nil {
		return err
	}
	if !json.Valid(payload) {
		return webhookdomain.ErrInvalidPayload
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.reject(provider, "signature")
		s.log.Warn("webhook signature verification failed", zap.String("provider", provider))
		return err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, webhookdomain.ErrEventIgnored) {
			s.log.Debug("webhook event ignored", zap.String("provider", provider))
			return nil
		}
		if errors.Is(err, reconciledomain.ErrUnresolvedReference) {
			s.reject(provider, "unresolved_reference")
		}
		return err
	}

	return s.reconcile.Apply(ctx, event)
}

func (s *Service) VerifyCapturedOrder(ctx context.Context, orderID string, recordID snowflake.ID) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || recordID == 0 {
		return webhookdomain.ErrInvalidEvent
	}

	// Never trust the client's account of the capture. The order is read
	// back from PayPal and that response alone decides.
	order, err := s.paypal.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	capture, unitCustomID := completedCapture(order)
	if capture == nil {
		return webhookdomain.ErrOrderNotCaptured
	}

	customID := strings.TrimSpace(capture.CustomID)
	if customID == "" {
		customID = unitCustomID
	}
	if customID != recordID.String() {
		s.reject("paypal", "order_mismatch")
		s.log.Warn("captured order does not reference claimed record",
			zap.String("order_id", orderID),
			zap.String("claimed_record_id", recordID.String()),
		)
		return webhookdomain.ErrOrderMismatch
	}

	raw, _ := json.Marshal(order)
	event := &reconciledomain.ReconciliationEvent{
		Provider:        "paypal",
		ProviderEventID: "capture_" + capture.ID,
		EventType:       "client.capture.verified",
		Outcome:         reconciledomain.OutcomeCompleted,
		PayableRecordID: recordID,
		AmountCents:     paypaladapter.ParseAmount(capture.Amount.Value),
		Currency:        strings.ToUpper(strings.TrimSpace(capture.Amount.CurrencyCode)),
		RawPayload:      raw,
	}

	err = s.reconcile.Apply(ctx, event)
	if errors.Is(err, reconciledomain.ErrEventAlreadyProcessed) {
		// The webhook or an earlier verification beat us to it.
		return nil
	}
	return err
}

func completedCapture(order *paypal.Order) (*paypal.Capture, string) {
	if order == nil || order.Status != paypal.OrderStatusCompleted {
		return nil, ""
	}
	for _, unit := range order.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for i := range unit.Payments.Captures {
			capture := &unit.Payments.Captures[i]
			if capture.Status == paypal.CaptureStatusCompleted {
				return capture, strings.TrimSpace(unit.CustomID)
			}
		}
	}
	return nil, ""
}

func (s *Service) reject(provider, reason string) {
	if s.metrics != nil {
		s.metrics.RecordWebhookRejection(provider, reason)
	}
}
