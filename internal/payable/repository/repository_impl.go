package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/youthbridge/youthbridge/internal/payable/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.PayableRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payable_records (
			id, kind, owner_id, related_event_id, category, amount_cents,
			status, payment_status, provider, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Kind,
		record.OwnerID,
		nullableID(record.RelatedEventID),
		record.Category,
		record.AmountCents,
		record.Status,
		record.PaymentStatus,
		record.Provider,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PayableRecord, error) {
	var record domain.PayableRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, owner_id, related_event_id, category, amount_cents,
		        status, payment_status, provider, created_at, updated_at
		 FROM payable_records
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, ownerID string, kind domain.Kind, eventID snowflake.ID) (*domain.PayableRecord, error) {
	var record domain.PayableRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, owner_id, related_event_id, category, amount_cents,
		        status, payment_status, provider, created_at, updated_at
		 FROM payable_records
		 WHERE owner_id = ? AND kind = ?
		   AND COALESCE(related_event_id, 0) = ?
		   AND status = ?
		 LIMIT 1`,
		ownerID,
		kind,
		eventID,
		domain.StatusPending,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) FindResumable(ctx context.Context, db *gorm.DB, ownerID string, kind domain.Kind, eventID snowflake.ID) (*domain.PayableRecord, error) {
	var record domain.PayableRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, owner_id, related_event_id, category, amount_cents,
		        status, payment_status, provider, created_at, updated_at
		 FROM payable_records
		 WHERE owner_id = ? AND kind = ?
		   AND COALESCE(related_event_id, 0) = ?
		   AND status NOT IN (?, ?, ?, ?)
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		ownerID,
		kind,
		eventID,
		domain.StatusCancelled,
		domain.StatusConfirmed,
		domain.StatusApproved,
		domain.StatusRejected,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) ConfirmPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, newStatus, provider string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payable_records
		 SET payment_status = ?, status = ?, provider = ?, updated_at = ?
		 WHERE id = ? AND payment_status = ?`,
		domain.PaymentStatusPaid,
		newStatus,
		provider,
		now,
		id,
		domain.PaymentStatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) CancelPending(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payable_records
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND payment_status = ?`,
		domain.StatusCancelled,
		now,
		id,
		domain.StatusPending,
		domain.PaymentStatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) DecideVisa(ctx context.Context, db *gorm.DB, id snowflake.ID, newStatus string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payable_records
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND kind = ? AND status = ?`,
		newStatus,
		now,
		id,
		domain.KindVisaInvitation,
		domain.StatusPaid,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetProvider(ctx context.Context, db *gorm.DB, id snowflake.ID, provider string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payable_records
		 SET provider = ?, updated_at = ?
		 WHERE id = ?`,
		provider,
		now,
		id,
	).Error
}

func nullableID(id snowflake.ID) any {
	if id == 0 {
		return nil
	}
	return id
}
