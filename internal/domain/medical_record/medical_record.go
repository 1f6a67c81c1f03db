package medical_record

import (
	"time"

	"github.com/clinova/praxis/internal/domain/consultation"
	"github.com/google/uuid"
)

// RecordStatus tracks the encounter record itself, not the appointment.
type RecordStatus string

const (
	StatusInProgress RecordStatus = "in_progress"
	StatusCompleted  RecordStatus = "completed"
	StatusCancelled  RecordStatus = "cancelled"
)

func (s RecordStatus) IsValid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Attachment references a file on the external object host.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// MedicalRecord is one encounter record, distinct from a raw
// consultation: it carries a diagnosis and treatment plan and is
// editable and soft-deletable.
type MedicalRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID     uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	AppointmentID *uuid.UUID `gorm:"column:appointment_id;type:uuid;index"`
	DoctorID      uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index"`

	Status RecordStatus `gorm:"column:status;type:varchar(30);not null;default:'in_progress';index"`

	Vitals *consultation.VitalSigns `gorm:"column:vitals;serializer:json"`

	Diagnosis string `gorm:"column:diagnosis;type:text;not null"`
	ICDCode   string `gorm:"column:icd_code;type:varchar(20)"`
	Treatment string `gorm:"column:treatment;type:text"`
	Notes     string `gorm:"column:notes;type:text"`

	Attachments []Attachment `gorm:"column:attachments;serializer:json"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (MedicalRecord) TableName() string {
	return "clinical.medical_records"
}

type CreateRecordCommand struct {
	PatientID     uuid.UUID
	AppointmentID *uuid.UUID
	DoctorID      uuid.UUID
	Vitals        *consultation.VitalSigns
	Diagnosis     string
	ICDCode       string
	Treatment     string
	Notes         string
	CreatedBy     uuid.UUID
}

type UpdateRecordCommand struct {
	Status    *RecordStatus
	Vitals    *consultation.VitalSigns
	Diagnosis *string
	ICDCode   *string
	Treatment *string
	Notes     *string
	UpdatedBy uuid.UUID
}

type ListRecordsQuery struct {
	PatientID      *uuid.UUID
	DoctorID       *uuid.UUID
	Status         *RecordStatus
	AppointmentID  *uuid.UUID
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool
	Page           int
	PageSize       int
}

type PagedRecords struct {
	Records    []*MedicalRecord
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
