package access

import (
	"fmt"

	"github.com/clinova/praxis/internal/domain"
)

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Resource is the record class an action targets. PatientContact is
// split out from Patient because editing contact details is gated by
// its own flag.
type Resource string

const (
	ResourcePatient        Resource = "patient"
	ResourcePatientContact Resource = "patient_contact"
	ResourceAppointment    Resource = "appointment"
	ResourceConsultation   Resource = "consultation"
	ResourceMedicalRecord  Resource = "medical_record"
	ResourcePrescription   Resource = "prescription"
	ResourceSettings       Resource = "settings"
)

// ForbiddenError signals an access-control denial. Callers must surface
// it as such, never degrade to partial data.
type ForbiddenError struct {
	Role     domain.Role
	Action   Action
	Resource Resource
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: role %q may not %s %s", e.Role, e.Action, e.Resource)
}

// Check evaluates whether the caller may perform the action on the
// resource class. Evaluation is two-stage: the role must be one of the
// recognized practitioner roles (anything else fails closed), then the
// specific permission flag on the caller must be true.
func Check(caller *domain.Claims, action Action, resource Resource) error {
	deny := func() error {
		return &ForbiddenError{Role: caller.Role, Action: action, Resource: resource}
	}

	if !caller.Role.IsValid() {
		return deny()
	}

	if allowed(caller, action, resource) {
		return nil
	}
	return deny()
}

func allowed(caller *domain.Claims, action Action, resource Resource) bool {
	p := caller.Permissions

	switch resource {
	case ResourcePatient:
		switch action {
		case ActionView:
			return p.CanViewPatients
		case ActionCreate:
			return p.CanCreatePatients
		case ActionEdit:
			// Editing the clinical portion of a patient record requires
			// medical-record edit rights; contact edits go through
			// ResourcePatientContact.
			return p.CanEditMedicalRecords
		case ActionDelete:
			return p.CanDeletePatients
		}

	case ResourcePatientContact:
		switch action {
		case ActionView:
			return p.CanViewPatients
		case ActionEdit:
			return p.CanEditPatientContact
		}

	case ResourceAppointment:
		switch action {
		case ActionView:
			return p.CanViewPatients
		case ActionCreate, ActionEdit, ActionDelete:
			return p.CanScheduleAppointments
		}

	case ResourceConsultation, ResourceMedicalRecord:
		switch action {
		case ActionView:
			return p.CanViewMedicalRecords
		case ActionCreate, ActionEdit, ActionDelete:
			return p.CanEditMedicalRecords
		}

	case ResourcePrescription:
		switch action {
		case ActionView:
			return p.CanViewPrescriptions
		case ActionCreate, ActionEdit, ActionDelete:
			// Prescribing is a doctor act regardless of flags.
			return caller.Role == domain.RoleDoctor && p.CanViewPrescriptions
		}

	case ResourceSettings:
		return p.CanManageSettings
	}

	return false
}
