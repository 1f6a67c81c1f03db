package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/access"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/internal/domain/prescription"
	"github.com/clinova/praxis/internal/sequence"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PrescriptionService struct {
	repo        prescription.Repository
	patientRepo patient.Repository
	seq         *sequence.Generator
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
}

func NewPrescriptionService(repo prescription.Repository, patientRepo patient.Repository, seq *sequence.Generator, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PrescriptionService {
	return &PrescriptionService{repo: repo, patientRepo: patientRepo, seq: seq, auditSvc: auditSvc, collector: collector, log: log}
}

func (s *PrescriptionService) CreatePrescription(ctx context.Context, cmd *prescription.CreatePrescriptionCommand, caller *domain.Claims, ip string) (*prescription.Prescription, error) {
	if err := access.Check(caller, access.ActionCreate, access.ResourcePrescription); err != nil {
		return nil, err
	}

	var errs []string
	if len(cmd.Medications) == 0 {
		errs = append(errs, "at least one medication line is required")
	}
	for i, m := range cmd.Medications {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Sprintf("medications[%d].name is required", i))
		}
		if strings.TrimSpace(m.Dosage) == "" {
			errs = append(errs, fmt.Sprintf("medications[%d].dosage is required", i))
		}
		if !m.Route.IsValid() {
			errs = append(errs, fmt.Sprintf("medications[%d].route is invalid", i))
		}
		if m.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("medications[%d].quantity must be positive", i))
		}
	}
	if cmd.ValidUntil.IsZero() {
		errs = append(errs, "valid_until is required")
	} else if !cmd.IssuedAt.IsZero() && !cmd.ValidUntil.After(cmd.IssuedAt) {
		errs = append(errs, "valid_until must be after issued_at")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if _, err := s.patientRepo.GetByID(ctx, cmd.PatientID, false); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	issuedAt := cmd.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	p := &prescription.Prescription{
		TenantID:      caller.TenantID,
		PatientID:     cmd.PatientID,
		DoctorID:      cmd.DoctorID,
		AppointmentID: cmd.AppointmentID,
		Medications:   cmd.Medications,
		IssuedAt:      issuedAt,
		ValidUntil:    cmd.ValidUntil,
		Status:        prescription.StatusActive,
		Instructions:  cmd.Instructions,
		CreatedBy:     cmd.CreatedBy,
	}

	if err := s.createWithNumber(ctx, p, caller.TenantID); err != nil {
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, err
	}
	s.collector.PrescriptionsIssued.Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "prescription", ResourceID: p.ID.String(), IPAddress: ip,
	})

	s.log.Info("prescription issued",
		zap.String("prescription_id", p.ID.String()),
		zap.String("prescription_number", p.PrescriptionNumber),
	)

	return p, nil
}

func (s *PrescriptionService) createWithNumber(ctx context.Context, p *prescription.Prescription, tenantID uuid.UUID) error {
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.seq.Next(ctx, sequence.ClassPrescription, tenantID)
		if err != nil {
			return fmt.Errorf("drawing prescription number: %w", err)
		}
		p.PrescriptionNumber = number

		err = s.repo.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateNumber) {
			return fmt.Errorf("creating prescription: %w", err)
		}
		s.collector.SequenceRedraws.Inc()
		s.log.Warn("prescription number collision, redrawing",
			zap.String("prescription_number", number))
	}
	return domain.ErrDuplicateNumber
}

func (s *PrescriptionService) GetPrescription(ctx context.Context, id uuid.UUID, includeDeleted bool, caller *domain.Claims, ip string) (*prescription.Prescription, error) {
	if err := access.Check(caller, access.ActionView, access.ResourcePrescription); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}

	if includeDeleted {
		s.log.Info("deleted-record read",
			zap.String("prescription_id", id.String()),
			zap.String("user_id", caller.UserID.String()),
		)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "prescription", ResourceID: id.String(), IPAddress: ip,
	})

	return p, nil
}

// UpdateStatus handles the caller-facing transitions: completed and
// cancelled. Expiry is the sweep's job.
func (s *PrescriptionService) UpdateStatus(ctx context.Context, id uuid.UUID, status prescription.PrescriptionStatus, caller *domain.Claims, ip string) (*prescription.Prescription, error) {
	if err := access.Check(caller, access.ActionEdit, access.ResourcePrescription); err != nil {
		return nil, err
	}
	if status != prescription.StatusCompleted && status != prescription.StatusCancelled {
		return nil, prescription.ErrInvalidStatus
	}

	p, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if p.Status != prescription.StatusActive {
		return nil, prescription.ErrNotActive
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("updating prescription status: %w", err)
	}
	p.Status = status

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "prescription", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":"%s"}`, status),
	})

	return p, nil
}

func (s *PrescriptionService) DeletePrescription(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionDelete, access.ResourcePrescription); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id, false); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("deleting prescription: %w", err)
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "delete", ResourceType: "prescription", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *PrescriptionService) ListPrescriptions(ctx context.Context, q *prescription.ListPrescriptionsQuery, caller *domain.Claims, ip string) (*prescription.PagedPrescriptions, error) {
	if err := access.Check(caller, access.ActionView, access.ResourcePrescription); err != nil {
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
			Action: "read", ResourceType: "prescription", ResourceID: "list:include_deleted", IPAddress: ip,
		})
	}
	return s.repo.List(ctx, q)
}

func (s *PrescriptionService) GetActiveByPatient(ctx context.Context, patientID uuid.UUID, caller *domain.Claims) ([]*prescription.Prescription, error) {
	if err := access.Check(caller, access.ActionView, access.ResourcePrescription); err != nil {
		return nil, err
	}
	return s.repo.GetActiveByPatient(ctx, patientID)
}

// ExpireDue flips active prescriptions past their validity window to
// expired. Run periodically from main.
func (s *PrescriptionService) ExpireDue(ctx context.Context) error {
	n, err := s.repo.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("expiring prescriptions: %w", err)
	}
	if n > 0 {
		s.collector.PrescriptionsExpired.Add(float64(n))
		s.log.Info("prescriptions expired", zap.Int64("count", n))
	}
	return nil
}
