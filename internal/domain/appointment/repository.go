package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error

	// GetByID excludes soft-deleted rows unless includeDeleted.
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Appointment, error)

	Update(ctx context.Context, id uuid.UUID, cmd *UpdateAppointmentCommand) (*Appointment, error)

	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists a status transition already applied to the
	// entity, compare-and-swapped against the status it was read at so
	// concurrent transitions cannot both win.
	UpdateStatus(ctx context.Context, a *Appointment, fromStatus Status) error

	// SoftDelete marks the appointment deleted; its number is never reused.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// GetUpcoming returns non-terminal appointments starting within the
	// window — used by the reminder sweep.
	GetUpcoming(ctx context.Context, within time.Duration) ([]*Appointment, error)

	// SetReminderSent flips the channel flag; owned by the notifier,
	// never by lifecycle transitions.
	SetReminderSent(ctx context.Context, id uuid.UUID, channel string) error
}
