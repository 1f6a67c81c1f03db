package prescription

import (
	"time"

	"github.com/google/uuid"
)

type PrescriptionStatus string

const (
	StatusActive    PrescriptionStatus = "active"
	StatusCompleted PrescriptionStatus = "completed"
	StatusCancelled PrescriptionStatus = "cancelled"
	StatusExpired   PrescriptionStatus = "expired"
)

func (s PrescriptionStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type RouteOfAdministration string

const (
	RouteOral          RouteOfAdministration = "oral"
	RouteIntravenous   RouteOfAdministration = "intravenous"
	RouteIntramuscular RouteOfAdministration = "intramuscular"
	RouteTopical       RouteOfAdministration = "topical"
	RouteInhaled       RouteOfAdministration = "inhaled"
	RouteSublingual    RouteOfAdministration = "sublingual"
)

func (r RouteOfAdministration) IsValid() bool {
	switch r {
	case RouteOral, RouteIntravenous, RouteIntramuscular, RouteTopical, RouteInhaled, RouteSublingual:
		return true
	}
	return false
}

// MedicationLine is one prescribed medication; a prescription carries
// one or more, owned as an embedded value list.
type MedicationLine struct {
	Name      string                `json:"name"`
	Dosage    string                `json:"dosage"`    // e.g. "500mg"
	Frequency string                `json:"frequency"` // e.g. "twice daily"
	Duration  string                `json:"duration"`  // e.g. "7 days"
	Route     RouteOfAdministration `json:"route"`
	Quantity  int                   `json:"quantity"`
}

type Prescription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PrescriptionNumber string `gorm:"column:prescription_number;type:varchar(20);uniqueIndex;not null"`

	TenantID      uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	PatientID     uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID      uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;index"`

	Medications []MedicationLine `gorm:"column:medications;serializer:json"`

	IssuedAt   time.Time `gorm:"column:issued_at;not null;index"`
	ValidUntil time.Time `gorm:"column:valid_until;not null;index"`

	Status PrescriptionStatus `gorm:"column:status;type:varchar(30);not null;default:'active';index"`

	Instructions string `gorm:"column:instructions;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Prescription) TableName() string {
	return "clinical.prescriptions"
}

// IsValid reports whether the prescription is currently usable: active
// status and inside its validity window.
func (p *Prescription) IsValid(now time.Time) bool {
	return p.Status == StatusActive && now.Before(p.ValidUntil)
}

func (p *Prescription) IsExpired(now time.Time) bool {
	return now.After(p.ValidUntil)
}

// Expire marks an active prescription past its window as expired.
func (p *Prescription) Expire(now time.Time) error {
	if p.Status != StatusActive {
		return ErrNotActive
	}
	if !p.IsExpired(now) {
		return ErrNotExpiredYet
	}
	p.Status = StatusExpired
	return nil
}

type CreatePrescriptionCommand struct {
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	AppointmentID *uuid.UUID
	Medications   []MedicationLine
	IssuedAt      time.Time
	ValidUntil    time.Time
	Instructions  string
	CreatedBy     uuid.UUID
}

type ListPrescriptionsQuery struct {
	PatientID      *uuid.UUID
	DoctorID       *uuid.UUID
	Status         *PrescriptionStatus
	IncludeDeleted bool
	Page           int
	PageSize       int
}

type PagedPrescriptions struct {
	Prescriptions []*Prescription
	TotalCount    int64
	Page          int
	PageSize      int
	TotalPages    int
}
