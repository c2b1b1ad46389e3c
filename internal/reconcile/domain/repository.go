package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertEvent inserts the dedup row. Returns false when the
	// (provider, provider_event_id) pair was already recorded.
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}

type Service interface {
	// Apply maps one verified provider event onto at most one record
	// mutation. Safe to call any number of times with the same event.
	Apply(ctx context.Context, event *ReconciliationEvent) error
}
