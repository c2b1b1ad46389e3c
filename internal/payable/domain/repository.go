package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *PayableRecord) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PayableRecord, error)
	// FindActive returns the pending record for the (owner, kind, event)
	// tuple, or nil.
	FindActive(ctx context.Context, db *gorm.DB, ownerID string, kind Kind, eventID snowflake.ID) (*PayableRecord, error)
	// FindResumable returns the most recent non-terminal record for the
	// tuple, or nil.
	FindResumable(ctx context.Context, db *gorm.DB, ownerID string, kind Kind, eventID snowflake.ID) (*PayableRecord, error)
	// ConfirmPayment flips payment_status PENDING -> PAID and moves status
	// in the same statement. Returns false when another writer got there
	// first.
	ConfirmPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, newStatus, provider string, now time.Time) (bool, error)
	// CancelPending cancels a record that is still fully pending. Returns
	// false when the record already left that state.
	CancelPending(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	// DecideVisa moves a visa invitation from PAID to APPROVED or REJECTED.
	DecideVisa(ctx context.Context, db *gorm.DB, id snowflake.ID, newStatus string, now time.Time) (bool, error)
	SetProvider(ctx context.Context, db *gorm.DB, id snowflake.ID, provider string, now time.Time) error
}
