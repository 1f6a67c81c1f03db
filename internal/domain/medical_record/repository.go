package medical_record

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*MedicalRecord, error)
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateRecordCommand) (*MedicalRecord, error)
	AddAttachment(ctx context.Context, id uuid.UUID, att Attachment) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q *ListRecordsQuery) (*PagedRecords, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*MedicalRecord, error)
}
