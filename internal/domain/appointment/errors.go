package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrNotReschedulable        = errors.New("appointment date/time is frozen in its current status")
	ErrInvalidDuration         = errors.New("appointment duration must be between 15 and 240 minutes")
	ErrInvalidAppointmentType  = errors.New("invalid appointment type")
	ErrInvalidConfirmingParty  = errors.New("confirming party must be patient, doctor or assistant")
	ErrInvalidCancellingParty  = errors.New("cancelling party must be patient, doctor or system")
)
