package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord is the dedup ledger row for a provider callback. The unique
// (provider, provider_event_id) pair makes redelivery harmless.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	PayableRecordID snowflake.ID   `json:"payable_record_id" gorm:"column:payable_record_id"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "provider_events" }

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// ReconciliationEvent is the canonical verified provider event produced by
// the webhook adapters. Only the payable record id links it to local state;
// the amount is informational and never overwrites the record.
type ReconciliationEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Outcome         string
	PayableRecordID snowflake.ID
	AmountCents     int64
	Currency        string
	OccurredAt      time.Time
	RawPayload      []byte
}
