package consultation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Consultation) error

	// GetByID is patient-scoped: the id must belong to the patient or
	// ErrConsultationNotFound is returned.
	GetByID(ctx context.Context, patientID, id uuid.UUID) (*Consultation, error)

	Update(ctx context.Context, patientID, id uuid.UUID, cmd *UpdateConsultationCommand) (*Consultation, error)

	// Delete is a hard delete; surviving entries are never renumbered.
	Delete(ctx context.Context, patientID, id uuid.UUID) error

	// ListByPatient returns the timeline ordered by consultation date
	// descending.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consultation, error)

	// DeleteByPatient removes the whole timeline; used when the owning
	// patient is deleted.
	DeleteByPatient(ctx context.Context, patientID uuid.UUID) error
}
