package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/access"
	"github.com/clinova/praxis/internal/domain/appointment"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/internal/sequence"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	seq         *sequence.Generator
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	seq *sequence.Generator,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{repo: repo, patientRepo: patientRepo, seq: seq, auditSvc: auditSvc, collector: collector, log: log}
}

func (s *AppointmentService) ScheduleAppointment(ctx context.Context, cmd *appointment.CreateAppointmentCommand, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	if err := access.Check(caller, access.ActionCreate, access.ResourceAppointment); err != nil {
		return nil, err
	}

	if cmd.DurationMins == 0 {
		cmd.DurationMins = appointment.DefaultDurationMins
	}

	var errs []string
	if cmd.ScheduledAt.IsZero() {
		errs = append(errs, "scheduled_at is required")
	} else if cmd.ScheduledAt.Before(time.Now()) {
		errs = append(errs, "scheduled_at cannot be in the past")
	}
	if cmd.DurationMins < appointment.MinDurationMins || cmd.DurationMins > appointment.MaxDurationMins {
		errs = append(errs, fmt.Sprintf("duration_mins must be between %d and %d",
			appointment.MinDurationMins, appointment.MaxDurationMins))
	}
	if !cmd.Type.IsValid() {
		errs = append(errs, "type is invalid")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID, false)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientDeceased
	}

	a := &appointment.Appointment{
		TenantID:      caller.TenantID,
		PatientID:     cmd.PatientID,
		DoctorID:      cmd.DoctorID,
		ScheduledAt:   cmd.ScheduledAt,
		DurationMins:  cmd.DurationMins,
		Type:          cmd.Type,
		Reason:        strings.TrimSpace(cmd.Reason),
		Status:        appointment.StatusPending,
		PaymentStatus: appointment.PaymentPending,
		FeeAmount:     cmd.FeeAmount,
		CreatedBy:     cmd.CreatedBy,
	}

	if err := s.createWithNumber(ctx, a, caller.TenantID); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, err
	}
	s.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "appointment", ResourceID: a.ID.String(), IPAddress: ip,
	})

	s.log.Info("appointment scheduled",
		zap.String("appointment_id", a.ID.String()),
		zap.String("appointment_number", a.AppointmentNumber),
		zap.Time("scheduled_at", a.ScheduledAt),
	)

	return a, nil
}

func (s *AppointmentService) createWithNumber(ctx context.Context, a *appointment.Appointment, tenantID uuid.UUID) error {
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.seq.Next(ctx, sequence.ClassAppointment, tenantID)
		if err != nil {
			return fmt.Errorf("drawing appointment number: %w", err)
		}
		a.AppointmentNumber = number

		err = s.repo.Create(ctx, a)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateNumber) {
			return fmt.Errorf("creating appointment: %w", err)
		}
		s.collector.SequenceRedraws.Inc()
		s.log.Warn("appointment number collision, redrawing",
			zap.String("appointment_number", number))
	}
	return domain.ErrDuplicateNumber
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, includeDeleted bool, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	if err := access.Check(caller, access.ActionView, access.ResourceAppointment); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}

	if includeDeleted {
		s.log.Info("deleted-record read",
			zap.String("appointment_id", id.String()),
			zap.String("user_id", caller.UserID.String()),
		)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return a, nil
}

// UpdateAppointment covers rescheduling and administrative edits.
// Date/time changes go through the entity's Reschedule so the frozen
// statuses are enforced.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	if err := access.Check(caller, access.ActionEdit, access.ResourceAppointment); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if cmd.ScheduledAt != nil || cmd.DurationMins != nil {
		newTime := a.ScheduledAt
		if cmd.ScheduledAt != nil {
			newTime = *cmd.ScheduledAt
		}
		duration := a.DurationMins
		if cmd.DurationMins != nil {
			duration = *cmd.DurationMins
		}
		if err := a.Reschedule(newTime, duration); err != nil {
			return nil, err
		}
	}
	if cmd.Type != nil && !cmd.Type.IsValid() {
		return nil, appointment.ErrInvalidAppointmentType
	}

	updated, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return updated, nil
}

// transition loads the appointment, applies fn, and persists the new
// status compare-and-swapped against the status it was read at.
func (s *AppointmentService) transition(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip, changes string, fn func(*appointment.Appointment) error) (*appointment.Appointment, error) {
	if err := access.Check(caller, access.ActionEdit, access.ResourceAppointment); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	fromStatus := a.Status
	if err := fn(a); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a, fromStatus); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}
	s.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: changes,
	})

	return a, nil
}

func (s *AppointmentService) ConfirmAppointment(ctx context.Context, id uuid.UUID, by appointment.ConfirmedBy, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, caller, ip,
		fmt.Sprintf(`{"status":"confirmed","confirmed_by":"%s"}`, by),
		func(a *appointment.Appointment) error {
			return a.Confirm(by, time.Now().UTC())
		})
}

func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID, by appointment.CancelledBy, reason string, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, caller, ip,
		fmt.Sprintf(`{"status":"cancelled","reason":%q}`, reason),
		func(a *appointment.Appointment) error {
			return a.Cancel(by, reason, time.Now().UTC())
		})
}

func (s *AppointmentService) MarkInProgress(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, caller, ip, `{"status":"in_progress"}`,
		func(a *appointment.Appointment) error {
			return a.MarkInProgress()
		})
}

func (s *AppointmentService) MarkCompleted(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, caller, ip, `{"status":"completed"}`,
		func(a *appointment.Appointment) error {
			return a.MarkCompleted(time.Now().UTC())
		})
}

func (s *AppointmentService) MarkNoShow(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) (*appointment.Appointment, error) {
	return s.transition(ctx, id, caller, ip, `{"status":"no_show"}`,
		func(a *appointment.Appointment) error {
			return a.MarkNoShow()
		})
}

func (s *AppointmentService) DeleteAppointment(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionDelete, access.ResourceAppointment); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id, false); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("deleting appointment: %w", err)
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "delete", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, caller *domain.Claims, ip string) (*appointment.PagedAppointments, error) {
	if err := access.Check(caller, access.ActionView, access.ResourceAppointment); err != nil {
		return nil, err
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.IncludeDeleted {
		s.log.Info("deleted-records list",
			zap.String("user_id", caller.UserID.String()))
		s.auditSvc.LogAsync(ctx, AuditEntry{
			UserID: caller.UserID, UserRole: string(caller.Role),
			Action: "read", ResourceType: "appointment", ResourceID: "list:include_deleted", IPAddress: ip,
		})
	}
	return s.repo.List(ctx, q)
}
