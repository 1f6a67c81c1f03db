package patient

import "errors"

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrPatientDeceased    = errors.New("operation not permitted: patient is deceased")
	ErrInvalidToothNumber = errors.New("tooth number must be a standard adult position (11-18, 21-28, 31-38, 41-48)")
	ErrInvalidToothStatus = errors.New("invalid tooth status")
	ErrNotShared          = errors.New("patient is not shared with this practitioner")
)
