package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type BloodType string

const (
	BloodTypeAPos    BloodType = "A+"
	BloodTypeANeg    BloodType = "A-"
	BloodTypeBPos    BloodType = "B+"
	BloodTypeBNeg    BloodType = "B-"
	BloodTypeABPos   BloodType = "AB+"
	BloodTypeABNeg   BloodType = "AB-"
	BloodTypeOPos    BloodType = "O+"
	BloodTypeONeg    BloodType = "O-"
	BloodTypeUnknown BloodType = "unknown"
)

func (b BloodType) IsValid() bool {
	switch b {
	case BloodTypeAPos, BloodTypeANeg, BloodTypeBPos, BloodTypeBNeg,
		BloodTypeABPos, BloodTypeABNeg, BloodTypeOPos, BloodTypeONeg, BloodTypeUnknown:
		return true
	}
	return false
}

// Status represents the lifecycle state of a patient record.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusDeceased    Status = "deceased"
	StatusTransferred Status = "transferred"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeceased, StatusTransferred:
		return true
	}
	return false
}

type AllergySeverity string

const (
	SeverityMild     AllergySeverity = "mild"
	SeverityModerate AllergySeverity = "moderate"
	SeveritySevere   AllergySeverity = "severe"
)

func (s AllergySeverity) IsValid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

type Allergy struct {
	Name     string          `json:"name"`
	Severity AllergySeverity `json:"severity"`
	Notes    string          `json:"notes,omitempty"`
}

type ContactInfo struct {
	Phone   string `gorm:"column:phone;type:varchar(20)"`
	Email   string `gorm:"column:email;type:varchar(255)"`
	Address string `gorm:"column:address;type:text"`
	City    string `gorm:"column:city;type:varchar(100)"`
	State   string `gorm:"column:state;type:varchar(50)"`
	ZipCode string `gorm:"column:zip_code;type:varchar(20)"`
	Country string `gorm:"column:country;type:varchar(100)"`
}

type Insurance struct {
	Provider      string `json:"provider"`
	PolicyNumber  string `json:"policy_number"`
	GroupNumber   string `json:"group_number"`
	PrimaryHolder string `json:"primary_holder"`
}

type Habits struct {
	Smoker  bool   `json:"smoker"`
	Alcohol bool   `json:"alcohol"`
	Notes   string `json:"notes,omitempty"`
}

// PhotoRef points to a clinical photo on the external file host. Only
// the URL and metadata are stored here, never binary content.
type PhotoRef struct {
	URL         string    `json:"url"`
	Description string    `json:"description,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Patient is the aggregate root. Its allergy list, dental chart, photo
// references and consultations are exclusively owned: they live and die
// with the patient record.
type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"` // Soft delete

	// MedicalRecordNumber is drawn from the sequence counter at
	// creation and never changes afterwards.
	MedicalRecordNumber string `gorm:"column:medical_record_number;type:varchar(20);uniqueIndex;not null"`

	TenantID uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Gender      Gender    `gorm:"column:gender;type:varchar(20);not null"`
	BloodType   BloodType `gorm:"column:blood_type;type:varchar(10)"`

	ContactInfo

	// Anthropometrics. BMI is derived on read, never stored.
	WeightKg float64 `gorm:"column:weight_kg"`
	HeightCm float64 `gorm:"column:height_cm"`

	Allergies         []Allergy `gorm:"column:allergies;serializer:json"`
	AllergyNotes      string    `gorm:"column:allergy_notes;type:text"`
	ChronicConditions []string  `gorm:"column:chronic_conditions;serializer:json"`
	Habits            Habits    `gorm:"column:habits;serializer:json"`
	FamilyHistory     string    `gorm:"column:family_history;type:text"`

	Insurance *Insurance `gorm:"column:insurance;serializer:json"`

	DentalChart DentalChart `gorm:"column:dental_chart;serializer:json"`

	Photos       []PhotoRef `gorm:"column:photos;serializer:json"`
	ProfilePhoto *PhotoRef  `gorm:"column:profile_photo;serializer:json"`

	Status Status `gorm:"column:status;type:varchar(20);default:'active';index"`
	Notes  string `gorm:"column:notes;type:text"` // PHI

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

// PractitionerLink is the patient↔practitioner share relation. A
// patient may be shared by several doctors; membership changes are
// single-row inserts/deletes, queryable from either side.
type PractitionerLink struct {
	PatientID      uuid.UUID `gorm:"column:patient_id;type:uuid;primaryKey"`
	PractitionerID uuid.UUID `gorm:"column:practitioner_id;type:uuid;primaryKey;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (PractitionerLink) TableName() string {
	return "clinical.patient_practitioners"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *Patient) IsActive() bool {
	return p.Status == StatusActive && p.DeletedAt == nil
}

// Age returns whole years at the given reference time per the exact
// month/day boundary rule in AgeAt.
func (p *Patient) Age(asOf time.Time) int {
	return AgeAt(p.DateOfBirth, asOf)
}

// BMI returns the derived body-mass index, or nil when weight or
// height is missing.
func (p *Patient) BMI() *float64 {
	return ComputeBMI(p.WeightKg, p.HeightCm)
}

type CreatePatientCommand struct {
	FirstName         string
	LastName          string
	DateOfBirth       time.Time
	Gender            Gender
	BloodType         BloodType
	Phone             string
	Email             string
	Address           string
	City              string
	State             string
	ZipCode           string
	Country           string
	WeightKg          float64
	HeightCm          float64
	Allergies         []Allergy
	AllergyNotes      string
	ChronicConditions []string
	Habits            Habits
	FamilyHistory     string
	Insurance         *Insurance
	Notes             string
	CreatedBy         uuid.UUID
}

type UpdatePatientCommand struct {
	FirstName         *string
	LastName          *string
	Gender            *Gender
	BloodType         *BloodType
	Phone             *string
	Email             *string
	Address           *string
	City              *string
	State             *string
	ZipCode           *string
	Country           *string
	WeightKg          *float64
	HeightCm          *float64
	Allergies         *[]Allergy
	AllergyNotes      *string
	ChronicConditions *[]string
	Habits            *Habits
	FamilyHistory     *string
	Insurance         *Insurance
	Status            *Status
	Notes             *string
	UpdatedBy         uuid.UUID
}

// IsContactOnly reports whether the update touches nothing beyond
// contact fields. Contact-only edits are gated by a weaker permission.
func (c *UpdatePatientCommand) IsContactOnly() bool {
	return c.FirstName == nil && c.LastName == nil && c.Gender == nil &&
		c.BloodType == nil && c.WeightKg == nil && c.HeightCm == nil &&
		c.Allergies == nil && c.AllergyNotes == nil && c.ChronicConditions == nil &&
		c.Habits == nil && c.FamilyHistory == nil && c.Insurance == nil &&
		c.Status == nil && c.Notes == nil
}

// ListPatientsQuery defines filtering and pagination for patient list queries.
type ListPatientsQuery struct {
	Search         string // name or medical record number
	Status         *Status
	PractitionerID *uuid.UUID
	IncludeDeleted bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string // "asc" | "desc"
}

type PagedPatients struct {
	Patients   []*Patient
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
