package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	Kind           Kind
	OwnerID        string
	RelatedEventID snowflake.ID
	Category       string
	AmountCents    int64
}

// ResumeResult carries a resumable record plus whether its registration
// window has already closed.
type ResumeResult struct {
	Record *PayableRecord
	Closed bool
}

type Service interface {
	// Create returns the existing pending record for the tuple instead of
	// creating a second one.
	Create(ctx context.Context, req CreateRequest) (*PayableRecord, error)
	GetByID(ctx context.Context, id snowflake.ID) (*PayableRecord, error)
	FindResumable(ctx context.Context, ownerID string, kind Kind, eventID snowflake.ID) (*ResumeResult, error)
	ApproveVisa(ctx context.Context, id snowflake.ID) (*PayableRecord, error)
	RejectVisa(ctx context.Context, id snowflake.ID) (*PayableRecord, error)
}
