package domain

import "errors"

var (
	ErrUnsupportedProvider = errors.New("unsupported_provider")
	ErrNotPayable          = errors.New("record_not_payable")
	ErrRegistrationClosed  = errors.New("registration_closed")
	ErrProviderUnavailable = errors.New("provider_unavailable")
)
