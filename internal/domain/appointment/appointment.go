package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentType string

const (
	TypeFirstVisit AppointmentType = "first_visit"
	TypeFollowUp   AppointmentType = "follow_up"
	TypeUrgent     AppointmentType = "urgent"
	TypeCheckup    AppointmentType = "checkup"
	TypeSurgery    AppointmentType = "surgery"
	TypeOther      AppointmentType = "other"
)

func (t AppointmentType) IsValid() bool {
	switch t {
	case TypeFirstVisit, TypeFollowUp, TypeUrgent, TypeCheckup, TypeSurgery, TypeOther:
		return true
	}
	return false
}

// State transitions:
//
//	pending → confirmed → in_progress → completed
//
// cancelled and no_show are side exits from pending, confirmed and
// in_progress. completed, cancelled and no_show are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// ConfirmedBy identifies who confirmed the appointment.
type ConfirmedBy string

const (
	ConfirmedByPatient   ConfirmedBy = "patient"
	ConfirmedByDoctor    ConfirmedBy = "doctor"
	ConfirmedByAssistant ConfirmedBy = "assistant"
)

func (c ConfirmedBy) IsValid() bool {
	switch c {
	case ConfirmedByPatient, ConfirmedByDoctor, ConfirmedByAssistant:
		return true
	}
	return false
}

// CancelledBy identifies the cancelling party.
type CancelledBy string

const (
	CancelledByPatient CancelledBy = "patient"
	CancelledByDoctor  CancelledBy = "doctor"
	CancelledBySystem  CancelledBy = "system"
)

func (c CancelledBy) IsValid() bool {
	switch c {
	case CancelledByPatient, CancelledByDoctor, CancelledBySystem:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentPartial   PaymentStatus = "partial"
	PaymentCancelled PaymentStatus = "cancelled"
)

const (
	MinDurationMins     = 15
	MaxDurationMins     = 240
	DefaultDurationMins = 30
)

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	AppointmentNumber string `gorm:"column:appointment_number;type:varchar(20);uniqueIndex;not null"`

	TenantID        uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	PatientID       uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID        uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`
	MedicalRecordID *uuid.UUID `gorm:"column:medical_record_id;type:uuid;index"`

	ScheduledAt  time.Time       `gorm:"column:scheduled_at;not null;index"`
	DurationMins int             `gorm:"column:duration_mins;not null;default:30"`
	Type         AppointmentType `gorm:"column:type;type:varchar(30);not null;index"`
	Reason       string          `gorm:"column:reason;type:text;not null"`
	Status       Status          `gorm:"column:status;type:varchar(30);not null;default:'pending';index"`

	// Confirmation metadata
	ConfirmedBy *ConfirmedBy `gorm:"column:confirmed_by;type:varchar(20)"`
	ConfirmedAt *time.Time   `gorm:"column:confirmed_at"`

	// Cancellation tracking
	CancelledAt        *time.Time   `gorm:"column:cancelled_at"`
	CancellationReason string       `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *CancelledBy `gorm:"column:cancelled_by;type:varchar(20)"`

	CompletedAt *time.Time `gorm:"column:completed_at"`

	// Reminder flags are owned by the notification dispatcher; lifecycle
	// transitions never touch them.
	EmailReminderSent bool `gorm:"column:email_reminder_sent;default:false"`
	SMSReminderSent   bool `gorm:"column:sms_reminder_sent;default:false"`

	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(20);default:'pending'"`
	FeeAmount     float64       `gorm:"column:fee_amount"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMins) * time.Minute)
}

// CanTransitionTo is the single audit point for the status graph;
// every lifecycle operation goes through it.
func (a *Appointment) CanTransitionTo(newStatus Status) bool {
	allowed := map[Status][]Status{
		StatusPending:    {StatusConfirmed, StatusCancelled, StatusNoShow},
		StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
		StatusInProgress: {StatusCompleted, StatusCancelled, StatusNoShow},
		StatusCompleted:  {},
		StatusCancelled:  {},
		StatusNoShow:     {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// Confirm is legal only from pending.
func (a *Appointment) Confirm(by ConfirmedBy, now time.Time) error {
	if !a.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidStatusTransition
	}
	if !by.IsValid() {
		return ErrInvalidConfirmingParty
	}
	a.Status = StatusConfirmed
	a.ConfirmedBy = &by
	a.ConfirmedAt = &now
	return nil
}

func (a *Appointment) Cancel(by CancelledBy, reason string, now time.Time) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	if !by.IsValid() {
		return ErrInvalidCancellingParty
	}
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &by
	return nil
}

func (a *Appointment) MarkNoShow() error {
	if !a.CanTransitionTo(StatusNoShow) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusNoShow
	return nil
}

// MarkInProgress is legal only from confirmed.
func (a *Appointment) MarkInProgress() error {
	if a.Status != StatusConfirmed || !a.CanTransitionTo(StatusInProgress) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusInProgress
	return nil
}

// MarkCompleted is legal only from in_progress.
func (a *Appointment) MarkCompleted(now time.Time) error {
	if a.Status != StatusInProgress || !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

// Reschedule changes date/time. Once in_progress the slot is frozen.
func (a *Appointment) Reschedule(newTime time.Time, durationMins int) error {
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return ErrNotReschedulable
	}
	if durationMins < MinDurationMins || durationMins > MaxDurationMins {
		return ErrInvalidDuration
	}
	a.ScheduledAt = newTime
	a.DurationMins = durationMins
	return nil
}

type CreateAppointmentCommand struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	ScheduledAt  time.Time
	DurationMins int
	Type         AppointmentType
	Reason       string
	FeeAmount    float64
	CreatedBy    uuid.UUID
}

type UpdateAppointmentCommand struct {
	ScheduledAt   *time.Time
	DurationMins  *int
	Type          *AppointmentType
	Reason        *string
	FeeAmount     *float64
	PaymentStatus *PaymentStatus
	UpdatedBy     uuid.UUID
}

type ListAppointmentsQuery struct {
	PatientID      *uuid.UUID
	DoctorID       *uuid.UUID
	Status         *Status
	Type           *AppointmentType
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool
	Page           int
	PageSize       int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
