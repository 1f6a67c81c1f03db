package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient with its pre-drawn medical record number.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound
	// if not found or soft-deleted (unless includeDeleted).
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Patient, error)

	// GetByMedicalRecordNumber retrieves a patient by record number.
	GetByMedicalRecordNumber(ctx context.Context, mrn string) (*Patient, error)

	// Update applies partial updates to an existing patient record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdatePatientCommand) (*Patient, error)

	// UpdateDentalChart replaces the stored chart wholesale.
	UpdateDentalChart(ctx context.Context, id uuid.UUID, chart *DentalChart) error

	// AddPhoto appends a clinical photo reference.
	AddPhoto(ctx context.Context, id uuid.UUID, ref PhotoRef) error

	// SetProfilePhoto replaces the at-most-one profile photo reference.
	SetProfilePhoto(ctx context.Context, id uuid.UUID, ref *PhotoRef) error

	// SoftDelete marks the patient as deleted. Owned sub-collections go
	// with it: the row keeps them embedded, consultations cascade.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// List returns a paginated, filtered list of patients.
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)

	// Share / Unshare manage the patient↔practitioner relation.
	Share(ctx context.Context, patientID, practitionerID uuid.UUID) error
	Unshare(ctx context.Context, patientID, practitionerID uuid.UUID) error
	Practitioners(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
}
