package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Event is a catalog entry a delegate can book. Seat counters reflect the
// original allocation and are not decremented by payment confirmation.
type Event struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Title                string       `gorm:"not null" json:"title"`
	Location             string       `json:"location"`
	Date                 time.Time    `gorm:"not null" json:"date"`
	PriceCents           int64        `gorm:"column:price_cents;not null" json:"price_cents"`
	SelfFundedSeats      int          `gorm:"column:self_funded_seats" json:"self_funded_seats"`
	PartiallyFundedSeats int          `gorm:"column:partially_funded_seats" json:"partially_funded_seats"`
	FullyFundedSeats     int          `gorm:"column:fully_funded_seats" json:"fully_funded_seats"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}
