package prescription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Prescription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status PrescriptionStatus) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListPrescriptionsQuery) (*PagedPrescriptions, error)
	GetActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)

	// ExpireDue flips active prescriptions whose window passed to
	// expired; returns how many rows changed.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
