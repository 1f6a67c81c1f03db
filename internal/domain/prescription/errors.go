package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrNotActive            = errors.New("prescription is not active")
	ErrNotExpiredYet        = errors.New("prescription validity window has not ended")
	ErrInvalidStatus        = errors.New("invalid prescription status")
)
