package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleDoctor    Role = "doctor"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleDoctor, RoleAssistant:
		return true
	}
	return false
}

// Permissions is the per-user flag bundle consulted by the access
// evaluator. Every flag is independently togglable; defaults come from
// DefaultPermissions and may be overridden per user.
type Permissions struct {
	CanViewPatients         bool `json:"can_view_patients"`
	CanCreatePatients       bool `json:"can_create_patients"`
	CanEditPatientContact   bool `json:"can_edit_patient_contact"`
	CanScheduleAppointments bool `json:"can_schedule_appointments"`
	CanViewMedicalRecords   bool `json:"can_view_medical_records"`
	CanEditMedicalRecords   bool `json:"can_edit_medical_records"`
	CanViewPrescriptions    bool `json:"can_view_prescriptions"`
	CanDeletePatients       bool `json:"can_delete_patients"`
	CanManageSettings       bool `json:"can_manage_settings"`
}

// DefaultPermissions returns the flag bundle a freshly created user of
// the given role starts with. Doctors get everything except the two
// destructive flags, which must be granted explicitly. Assistants get
// the front-desk subset.
func DefaultPermissions(r Role) Permissions {
	switch r {
	case RoleDoctor:
		return Permissions{
			CanViewPatients:         true,
			CanCreatePatients:       true,
			CanEditPatientContact:   true,
			CanScheduleAppointments: true,
			CanViewMedicalRecords:   true,
			CanEditMedicalRecords:   true,
			CanViewPrescriptions:    true,
		}
	case RoleAssistant:
		return Permissions{
			CanViewPatients:         true,
			CanCreatePatients:       true,
			CanEditPatientContact:   true,
			CanScheduleAppointments: true,
		}
	}
	return Permissions{}
}

// User is a practitioner account: a doctor or an assistant. Transport
// authentication resolves a bearer token into the user's Claims before
// any core operation runs.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName    string `gorm:"column:first_name;type:varchar(100);not null"`
	LastName     string `gorm:"column:last_name;type:varchar(100);not null"`
	Role         Role   `gorm:"column:role;type:varchar(30);not null;index"`

	// TenantID scopes the user's records and sequence counters to one
	// practice. A solo practitioner is a tenant of one.
	TenantID uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`

	Permissions Permissions `gorm:"column:permissions;serializer:json"`

	IsActive    bool       `gorm:"column:is_active;default:true;index"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "auth.users"
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserRole  Role      `gorm:"column:user_role;type:varchar(30);not null"`
	IPAddress string    `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index"`

	Changes string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

// Claims is the resolved caller identity the core consumes. The access
// evaluator never re-reads the user record: the permission bundle in
// the token is authoritative for the token's lifetime.
type Claims struct {
	UserID      uuid.UUID   `json:"sub"`
	Email       string      `json:"email"`
	Role        Role        `json:"role"`
	TenantID    uuid.UUID   `json:"tenant_id"`
	Permissions Permissions `json:"permissions"`
}
