package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/youthbridge/youthbridge/internal/checkout/domain"
	"github.com/youthbridge/youthbridge/internal/clock"
	"github.com/youthbridge/youthbridge/internal/config"
	eventdomain "github.com/youthbridge/youthbridge/internal/event/domain"
	"github.com/youthbridge/youthbridge/internal/observability/metrics"
	payabledomain "github.com/youthbridge/youthbridge/internal/payable/domain"
	"github.com/youthbridge/youthbridge/internal/paypal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	Clock       clock.Clock
	PayableRepo payabledomain.Repository
	EventRepo   eventdomain.Repository
	PayPal      *paypal.Client
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         config.Config
	clock       clock.Clock
	payableRepo payabledomain.Repository
	eventRepo   eventdomain.Repository
	stripe      *stripeClient
	paypal      *paypal.Client
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("checkout.service"),
		cfg:         p.Cfg,
		clock:       p.Clock,
		payableRepo: p.PayableRepo,
		eventRepo:   p.EventRepo,
		stripe:      newStripeClient(p.Cfg.StripeSecretKey, p.Cfg.ProviderTimeout, p.Metrics),
		paypal:      p.PayPal,
		metrics:     p.Metrics,
	}
}

func (s *Service) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.Session, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	switch provider {
	case domain.ProviderStripe, domain.ProviderPayPal:
	default:
		return nil, domain.ErrUnsupportedProvider
	}

	record, err := s.payableRepo.FindByID(ctx, s.db, req.PayableRecordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, payabledomain.ErrNotFound
	}
	if record.Status != payabledomain.StatusPending || record.PaymentStatus != payabledomain.PaymentStatusPending {
		return nil, domain.ErrNotPayable
	}

	var event *eventdomain.Event
	if record.Kind == payabledomain.KindEventBooking {
		event, err = s.eventRepo.FindByID(ctx, s.db, record.RelatedEventID)
		if err != nil {
			return nil, err
		}
		if event == nil {
			return nil, payabledomain.ErrEventNotFound
		}
		// No sessions for events that already started. The record stays
		// pending; only the resume flow reports it as closed.
		if !event.Date.After(s.clock.Now()) {
			return nil, domain.ErrRegistrationClosed
		}
	}

	var session *domain.Session
	switch provider {
	case domain.ProviderStripe:
		session, err = s.initiateStripe(ctx, record, event)
	case domain.ProviderPayPal:
		session, err = s.initiatePayPal(ctx, record)
	}
	if err != nil {
		return nil, err
	}

	if err := s.payableRepo.SetProvider(ctx, s.db, record.ID, provider, s.clock.Now()); err != nil {
		s.log.Warn("failed to record checkout provider",
			zap.String("record_id", record.ID.String()),
			zap.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordCheckoutSession(provider, string(record.Kind))
	}
	s.log.Info("checkout session created",
		zap.String("record_id", record.ID.String()),
		zap.String("provider", provider),
		zap.Int64("amount_cents", record.AmountCents),
	)
	return session, nil
}

func (s *Service) initiateStripe(ctx context.Context, record *payabledomain.PayableRecord, event *eventdomain.Event) (*domain.Session, error) {
	if s.cfg.StripeSecretKey == "" {
		return nil, domain.ErrProviderUnavailable
	}

	metadata := map[string]string{
		"booking_id": record.ID.String(),
		"user_id":    record.OwnerID,
		"type":       string(record.Kind),
	}
	if record.RelatedEventID != 0 {
		metadata["event_id"] = record.RelatedEventID.String()
	}

	session, err := s.stripe.createCheckoutSession(ctx, stripeSessionParams{
		amountCents: record.AmountCents,
		currency:    "usd",
		productName: productName(record, event),
		successURL:  s.redirectURL("success", record),
		cancelURL:   s.redirectURL("cancelled", record),
		metadata:    metadata,
		recordID:    record.ID.String(),
	})
	if err != nil {
		return nil, err
	}
	return &domain.Session{Provider: domain.ProviderStripe, URL: session.URL}, nil
}

func (s *Service) initiatePayPal(ctx context.Context, record *payabledomain.PayableRecord) (*domain.Session, error) {
	if !s.paypal.Configured() {
		return nil, domain.ErrProviderUnavailable
	}

	order, err := s.paypal.CreateOrder(ctx, record.ID.String(), record.AmountCents, "USD")
	if err != nil {
		return nil, err
	}
	return &domain.Session{Provider: domain.ProviderPayPal, OrderID: order.ID}, nil
}

func (s *Service) redirectURL(status string, record *payabledomain.PayableRecord) string {
	values := url.Values{}
	values.Set("status", status)
	values.Set("bookingId", record.ID.String())
	values.Set("type", string(record.Kind))
	if status == "cancelled" {
		values.Set("resume", "true")
	}
	return fmt.Sprintf("%s/payment-result?%s", s.cfg.FrontendURL, values.Encode())
}

func productName(record *payabledomain.PayableRecord, event *eventdomain.Event) string {
	switch record.Kind {
	case payabledomain.KindEventBooking:
		if event != nil && strings.TrimSpace(event.Title) != "" {
			return event.Title
		}
		return "Event booking"
	case payabledomain.KindVisaInvitation:
		return "Visa invitation letter"
	case payabledomain.KindApplication:
		return "Application donation"
	default:
		return "Payment"
	}
}
