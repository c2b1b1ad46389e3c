package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/youthbridge/youthbridge/internal/clock"
	"github.com/youthbridge/youthbridge/internal/notify"
	"github.com/youthbridge/youthbridge/internal/observability/metrics"
	payabledomain "github.com/youthbridge/youthbridge/internal/payable/domain"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        reconciledomain.Repository
	PayableRepo payabledomain.Repository
	Hub         *notify.Hub
	Clock       clock.Clock
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        reconciledomain.Repository
	payableRepo payabledomain.Repository
	hub         *notify.Hub
	clock       clock.Clock
	metrics     *metrics.Metrics
}

func New(p Params) reconciledomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("reconcile.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		payableRepo: p.PayableRepo,
		hub:         p.Hub,
		clock:       p.Clock,
		metrics:     p.Metrics,
	}
}

func (s *Service) Apply(ctx context.Context, event *reconciledomain.ReconciliationEvent) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	now := s.clock.Now()
	received := reconciledomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.EventType,
		PayableRecordID: event.PayableRecordID,
		Payload:         datatypes.JSON(event.RawPayload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return err
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, event.Provider, event.ProviderEventID)
		if err != nil {
			return err
		}
		if stored == nil {
			return reconciledomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			s.record(event.Provider, "duplicate")
			return reconciledomain.ErrEventAlreadyProcessed
		}
	}

	if err := s.applyToRecord(ctx, event); err != nil {
		return err
	}

	return s.repo.MarkProcessed(ctx, s.db, stored.ID, now)
}

func validateEvent(event *reconciledomain.ReconciliationEvent) error {
	if event == nil {
		return reconciledomain.ErrInvalidEvent
	}
	event.Provider = strings.ToLower(strings.TrimSpace(event.Provider))
	if event.Provider == "" {
		return reconciledomain.ErrInvalidProvider
	}
	event.ProviderEventID = strings.TrimSpace(event.ProviderEventID)
	if event.ProviderEventID == "" {
		return reconciledomain.ErrInvalidEvent
	}
	switch event.Outcome {
	case reconciledomain.OutcomeCompleted, reconciledomain.OutcomeFailed:
	default:
		return reconciledomain.ErrInvalidEvent
	}
	if event.PayableRecordID == 0 {
		return reconciledomain.ErrUnresolvedReference
	}
	if len(event.RawPayload) > 0 && !json.Valid(event.RawPayload) {
		return reconciledomain.ErrInvalidPayload
	}
	return nil
}

func (s *Service) applyToRecord(ctx context.Context, event *reconciledomain.ReconciliationEvent) error {
	record, err := s.payableRepo.FindByID(ctx, s.db, event.PayableRecordID)
	if err != nil {
		return err
	}
	if record == nil {
		s.log.Warn("provider event references unknown record",
			zap.String("provider", event.Provider),
			zap.String("provider_event_id", event.ProviderEventID),
			zap.String("record_id", event.PayableRecordID.String()),
		)
		return reconciledomain.ErrUnresolvedReference
	}

	if record.PaymentStatus == payabledomain.PaymentStatusPaid {
		s.record(event.Provider, "noop")
		return nil
	}

	if event.AmountCents > 0 && event.AmountCents != record.AmountCents {
		// The record amount is the source of truth. Flag the discrepancy
		// but never rewrite what the user agreed to pay.
		s.log.Warn("provider amount differs from record amount",
			zap.String("record_id", record.ID.String()),
			zap.Int64("record_amount_cents", record.AmountCents),
			zap.Int64("provider_amount_cents", event.AmountCents),
		)
	}

	now := s.clock.Now()
	switch event.Outcome {
	case reconciledomain.OutcomeCompleted:
		won, err := s.payableRepo.ConfirmPayment(ctx, s.db, record.ID, payabledomain.PaidStatusFor(record.Kind), event.Provider, now)
		if err != nil {
			return err
		}
		if !won {
			// Another delivery of the same payment confirmed first.
			s.record(event.Provider, "noop")
			return nil
		}
		s.publishSideEffect(record, event)
		s.record(event.Provider, "confirmed")
		s.log.Info("payment reconciled",
			zap.String("record_id", record.ID.String()),
			zap.String("kind", string(record.Kind)),
			zap.String("provider", event.Provider),
		)
	case reconciledomain.OutcomeFailed:
		won, err := s.payableRepo.CancelPending(ctx, s.db, record.ID, now)
		if err != nil {
			return err
		}
		if won {
			s.record(event.Provider, "cancelled")
		} else {
			s.record(event.Provider, "noop")
		}
	}
	return nil
}

func (s *Service) publishSideEffect(record *payabledomain.PayableRecord, event *reconciledomain.ReconciliationEvent) {
	topic := ""
	switch record.Kind {
	case payabledomain.KindEventBooking:
		topic = notify.TopicTicketGenerated
	case payabledomain.KindVisaInvitation:
		topic = notify.TopicLetterPaymentRecorded
	case payabledomain.KindApplication:
		topic = notify.TopicApplicationApproved
	default:
		return
	}
	s.hub.Publish(notify.Event{
		Topic:           topic,
		PayableRecordID: int64(record.ID),
		OwnerID:         record.OwnerID,
		EventID:         int64(record.RelatedEventID),
		Provider:        event.Provider,
		AmountCents:     record.AmountCents,
	})
}

func (s *Service) record(provider, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordReconcileEvent(provider, outcome)
	}
}
