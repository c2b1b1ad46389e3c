package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/youthbridge/youthbridge/internal/clock"
	"github.com/youthbridge/youthbridge/internal/config"
	eventdomain "github.com/youthbridge/youthbridge/internal/event/domain"
	payabledomain "github.com/youthbridge/youthbridge/internal/payable/domain"
	"github.com/youthbridge/youthbridge/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      payabledomain.Repository
	EventRepo eventdomain.Repository
	Clock     clock.Clock
	Pricing   *config.PricingConfigHolder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      payabledomain.Repository
	eventRepo eventdomain.Repository
	clock     clock.Clock
	pricing   *config.PricingConfigHolder
}

func New(p Params) payabledomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payable.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		eventRepo: p.EventRepo,
		clock:     p.Clock,
		pricing:   p.Pricing,
	}
}

func (s *Service) Create(ctx context.Context, req payabledomain.CreateRequest) (*payabledomain.PayableRecord, error) {
	req.OwnerID = strings.TrimSpace(req.OwnerID)
	req.Category = strings.ToUpper(strings.TrimSpace(req.Category))

	if !req.Kind.Valid() {
		return nil, payabledomain.ErrInvalidKind
	}
	if req.OwnerID == "" {
		return nil, payabledomain.ErrInvalidOwner
	}
	if req.AmountCents <= 0 {
		return nil, payabledomain.ErrInvalidAmount
	}

	if req.Kind == payabledomain.KindEventBooking {
		if err := s.validateBooking(ctx, &req); err != nil {
			return nil, err
		}
	} else {
		req.RelatedEventID = 0
	}

	if existing, err := s.repo.FindActive(ctx, s.db, req.OwnerID, req.Kind, req.RelatedEventID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	now := s.clock.Now()
	record := &payabledomain.PayableRecord{
		ID:             s.genID.Generate(),
		Kind:           req.Kind,
		OwnerID:        req.OwnerID,
		RelatedEventID: req.RelatedEventID,
		Category:       req.Category,
		AmountCents:    req.AmountCents,
		Status:         payabledomain.StatusPending,
		PaymentStatus:  payabledomain.PaymentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		// Lost a create race. The partial unique index guarantees exactly
		// one pending record per tuple, so return the winner.
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindActive(ctx, s.db, req.OwnerID, req.Kind, req.RelatedEventID)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.log.Info("payable record created",
		zap.String("record_id", record.ID.String()),
		zap.String("kind", string(record.Kind)),
		zap.Int64("amount_cents", record.AmountCents),
	)
	return record, nil
}

func (s *Service) validateBooking(ctx context.Context, req *payabledomain.CreateRequest) error {
	if req.RelatedEventID == 0 {
		return payabledomain.ErrEventNotFound
	}
	event, err := s.eventRepo.FindByID(ctx, s.db, req.RelatedEventID)
	if err != nil {
		return err
	}
	if event == nil {
		return payabledomain.ErrEventNotFound
	}

	multiplier, ok := s.pricing.Multiplier(req.Category)
	if !ok {
		return payabledomain.ErrInvalidCategory
	}
	expected := int64(math.Round(float64(event.PriceCents) * multiplier))
	if req.AmountCents != expected {
		return payabledomain.ErrInvalidAmount
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*payabledomain.PayableRecord, error) {
	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, payabledomain.ErrNotFound
	}
	return record, nil
}

func (s *Service) FindResumable(ctx context.Context, ownerID string, kind payabledomain.Kind, eventID snowflake.ID) (*payabledomain.ResumeResult, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, payabledomain.ErrInvalidOwner
	}
	if !kind.Valid() {
		return nil, payabledomain.ErrInvalidKind
	}

	record, err := s.repo.FindResumable(ctx, s.db, ownerID, kind, eventID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, payabledomain.ErrNotFound
	}

	result := &payabledomain.ResumeResult{Record: record}
	if record.Kind == payabledomain.KindEventBooking && record.RelatedEventID != 0 {
		event, err := s.eventRepo.FindByID(ctx, s.db, record.RelatedEventID)
		if err != nil {
			return nil, err
		}
		if event != nil && !event.Date.After(s.clock.Now()) {
			result.Closed = true
		}
	}
	return result, nil
}

func (s *Service) ApproveVisa(ctx context.Context, id snowflake.ID) (*payabledomain.PayableRecord, error) {
	return s.decideVisa(ctx, id, payabledomain.StatusApproved)
}

func (s *Service) RejectVisa(ctx context.Context, id snowflake.ID) (*payabledomain.PayableRecord, error) {
	return s.decideVisa(ctx, id, payabledomain.StatusRejected)
}

func (s *Service) decideVisa(ctx context.Context, id snowflake.ID, newStatus string) (*payabledomain.PayableRecord, error) {
	record, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Kind != payabledomain.KindVisaInvitation {
		return nil, payabledomain.ErrNotFound
	}

	updated, err := s.repo.DecideVisa(ctx, s.db, id, newStatus, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		// Only letters that have been paid for can be decided.
		return nil, payabledomain.ErrNotDecidable
	}

	s.log.Info("visa invitation decided",
		zap.String("record_id", id.String()),
		zap.String("status", newStatus),
	)
	return s.repo.FindByID(ctx, s.db, id)
}
