package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("creating appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*appointment.Appointment, error) {
	var a appointment.Appointment
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("fetching appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	var updated *appointment.Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a appointment.Appointment
		if err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appointment.ErrAppointmentNotFound
			}
			return err
		}

		// Reschedule legality was already checked by the service
		// against the same entity; the command carries final values.
		if cmd.ScheduledAt != nil {
			a.ScheduledAt = *cmd.ScheduledAt
		}
		if cmd.DurationMins != nil {
			a.DurationMins = *cmd.DurationMins
		}
		if cmd.Type != nil {
			a.Type = *cmd.Type
		}
		if cmd.Reason != nil {
			a.Reason = *cmd.Reason
		}
		if cmd.FeeAmount != nil {
			a.FeeAmount = *cmd.FeeAmount
		}
		if cmd.PaymentStatus != nil {
			a.PaymentStatus = *cmd.PaymentStatus
		}

		if err := tx.Save(&a).Error; err != nil {
			return err
		}
		updated = &a
		return nil
	})
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating appointment %s: %w", id, err)
	}
	return updated, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	db := r.db.WithContext(ctx).Model(&appointment.Appointment{})

	if !q.IncludeDeleted {
		db = db.Where("deleted_at IS NULL")
	}
	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Type != nil {
		db = db.Where("type = ?", *q.Type)
	}
	if q.DateFrom != nil {
		db = db.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("scheduled_at <= ?", *q.DateTo)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	offset, limit := pageWindow(q.Page, q.PageSize)
	var appointments []*appointment.Appointment
	if err := db.Order("scheduled_at ASC").Offset(offset).Limit(limit).Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: appointments,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages(total, q.PageSize),
	}, nil
}

// UpdateStatus persists a transition compare-and-swapped against the
// status the entity was read at. Zero rows affected means another
// transition won the race; the caller surfaces that as an invalid
// transition rather than silently overwriting.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment, fromStatus appointment.Status) error {
	updates := map[string]any{
		"status":              a.Status,
		"confirmed_by":        a.ConfirmedBy,
		"confirmed_at":        a.ConfirmedAt,
		"cancelled_at":        a.CancelledAt,
		"cancellation_reason": a.CancellationReason,
		"cancelled_by":        a.CancelledBy,
		"completed_at":        a.CompletedAt,
	}

	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND status = ? AND deleted_at IS NULL", a.ID, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("transitioning appointment %s: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrInvalidStatusTransition
	}
	return nil
}

func (r *AppointmentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("deleting appointment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) GetUpcoming(ctx context.Context, within time.Duration) ([]*appointment.Appointment, error) {
	now := time.Now()
	var appointments []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Where("status IN ?", []appointment.Status{appointment.StatusPending, appointment.StatusConfirmed}).
		Where("scheduled_at BETWEEN ? AND ?", now, now.Add(within)).
		Order("scheduled_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("fetching upcoming appointments: %w", err)
	}
	return appointments, nil
}

func (r *AppointmentRepository) SetReminderSent(ctx context.Context, id uuid.UUID, channel string) error {
	var column string
	switch channel {
	case "email":
		column = "email_reminder_sent"
	case "sms":
		column = "sms_reminder_sent"
	default:
		return fmt.Errorf("unknown reminder channel %q", channel)
	}

	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update(column, true)
	if res.Error != nil {
		return fmt.Errorf("marking %s reminder for %s: %w", channel, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}
