package domain

import "errors"

var (
	ErrNotFound        = errors.New("payable_record_not_found")
	ErrEventNotFound   = errors.New("event_not_found")
	ErrInvalidKind     = errors.New("invalid_kind")
	ErrInvalidOwner    = errors.New("invalid_owner")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCategory = errors.New("invalid_category")
	ErrNotDecidable    = errors.New("record_not_decidable")
)
