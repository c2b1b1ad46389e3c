package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind discriminates what a payable record pays for.
type Kind string

const (
	KindEventBooking   Kind = "event_booking"
	KindVisaInvitation Kind = "visa_invitation"
	KindApplication    Kind = "application"
)

func (k Kind) Valid() bool {
	switch k {
	case KindEventBooking, KindVisaInvitation, KindApplication:
		return true
	}
	return false
}

// Record lifecycle statuses. The reachable set depends on the kind:
// bookings end at CONFIRMED or CANCELLED, visa invitations pass through
// PAID before an admin decides APPROVED or REJECTED, applications end at
// APPROVED or CANCELLED.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
	StatusPaid      = "PAID"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusRefunded = "REFUNDED"
)

// PaidStatusFor returns the record status a kind moves to when its payment
// is confirmed.
func PaidStatusFor(kind Kind) string {
	switch kind {
	case KindEventBooking:
		return StatusConfirmed
	case KindVisaInvitation:
		return StatusPaid
	case KindApplication:
		return StatusApproved
	default:
		return StatusConfirmed
	}
}

// PayableRecord is the single source of truth for anything a user owes:
// an event booking, a visa invitation letter, or an application donation.
type PayableRecord struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Kind           Kind         `gorm:"type:text;not null" json:"kind"`
	OwnerID        string       `gorm:"column:owner_id;type:text;not null" json:"owner_id"`
	RelatedEventID snowflake.ID `gorm:"column:related_event_id" json:"related_event_id,omitempty"`
	Category       string       `gorm:"type:text" json:"category,omitempty"`
	AmountCents    int64        `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Status         string       `gorm:"type:text;not null" json:"status"`
	PaymentStatus  string       `gorm:"column:payment_status;type:text;not null" json:"payment_status"`
	Provider       string       `gorm:"type:text" json:"provider,omitempty"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (PayableRecord) TableName() string { return "payable_records" }

// Terminal reports whether no further payment activity is possible.
func (r *PayableRecord) Terminal() bool {
	switch r.Status {
	case StatusCancelled, StatusConfirmed, StatusApproved, StatusRejected:
		return true
	}
	return false
}
