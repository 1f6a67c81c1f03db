package consultation

import (
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Documentation-quality floor: reason and practitioner notes must carry
// at least this many non-space characters before a consultation may be
// persisted. This is a domain invariant, not form validation.
const (
	MinReasonLen = 10
	MinNotesLen  = 10
)

// VitalSigns are each independently optional.
type VitalSigns struct {
	BPSystolic       *int     `json:"bp_systolic,omitempty"`
	BPDiastolic      *int     `json:"bp_diastolic,omitempty"`
	HeartRateBPM     *int     `json:"heart_rate_bpm,omitempty"`
	TemperatureC     *float64 `json:"temperature_celsius,omitempty"`
	RespiratoryRate  *int     `json:"respiratory_rate_bpm,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
}

// BloodPressure renders the structured systolic/diastolic pair as the
// conventional display string, or "" when either half is missing.
func (v *VitalSigns) BloodPressure() string {
	if v == nil || v.BPSystolic == nil || v.BPDiastolic == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d", *v.BPSystolic, *v.BPDiastolic)
}

// Consultation is one clinical encounter document, owned exclusively by
// its patient. Consultations have no lifecycle: they are created,
// edited and hard-deleted, addressed by identity rather than position.
type Consultation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	ConsultationDate time.Time `gorm:"column:consultation_date;not null;index"`

	Reason          string `gorm:"column:reason;type:text;not null"`
	Symptoms        string `gorm:"column:symptoms;type:text"`
	SymptomDuration string `gorm:"column:symptom_duration;type:varchar(100)"`

	Vitals *VitalSigns `gorm:"column:vitals;serializer:json"`

	Notes string `gorm:"column:notes;type:text;not null"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Consultation) TableName() string {
	return "clinical.consultations"
}

// ContentLen counts characters for the documentation floor: runes, not
// bytes, so multibyte text is not over-counted, and any Unicode
// whitespace is excluded.
func ContentLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

type CreateConsultationCommand struct {
	ConsultationDate time.Time
	Reason           string
	Symptoms         string
	SymptomDuration  string
	Vitals           *VitalSigns
	Notes            string
	CreatedBy        uuid.UUID
}

type UpdateConsultationCommand struct {
	ConsultationDate *time.Time
	Reason           *string
	Symptoms         *string
	SymptomDuration  *string
	Vitals           *VitalSigns
	Notes            *string
	UpdatedBy        uuid.UUID
}
