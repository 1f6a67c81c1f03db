package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/access"
	"github.com/clinova/praxis/internal/domain/consultation"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ConsultationService struct {
	repo        consultation.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
}

func NewConsultationService(repo consultation.Repository, patientRepo patient.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *ConsultationService {
	return &ConsultationService{repo: repo, patientRepo: patientRepo, auditSvc: auditSvc, collector: collector, log: log}
}

// AppendConsultation adds an encounter to the patient's timeline. The
// documentation floor (minimum reason and notes length) is enforced
// here, before anything reaches the store.
func (s *ConsultationService) AppendConsultation(ctx context.Context, patientID uuid.UUID, cmd *consultation.CreateConsultationCommand, caller *domain.Claims, ip string) (*consultation.Consultation, error) {
	if err := access.Check(caller, access.ActionCreate, access.ResourceConsultation); err != nil {
		return nil, err
	}
	if err := validateConsultationContent(cmd.Reason, cmd.Notes, cmd.Vitals); err != nil {
		return nil, err
	}

	if _, err := s.patientRepo.GetByID(ctx, patientID, false); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	c := &consultation.Consultation{
		PatientID:        patientID,
		ConsultationDate: cmd.ConsultationDate,
		Reason:           strings.TrimSpace(cmd.Reason),
		Symptoms:         cmd.Symptoms,
		SymptomDuration:  cmd.SymptomDuration,
		Vitals:           cmd.Vitals,
		Notes:            strings.TrimSpace(cmd.Notes),
		CreatedBy:        cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.log.Error("failed to create consultation", zap.Error(err))
		return nil, fmt.Errorf("creating consultation: %w", err)
	}
	s.collector.ConsultationsAppended.Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "consultation", ResourceID: c.ID.String(), IPAddress: ip,
	})

	return c, nil
}

func (s *ConsultationService) GetConsultation(ctx context.Context, patientID, id uuid.UUID, caller *domain.Claims, ip string) (*consultation.Consultation, error) {
	if err := access.Check(caller, access.ActionView, access.ResourceConsultation); err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, patientID, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "consultation", ResourceID: id.String(), IPAddress: ip,
	})

	return c, nil
}

func (s *ConsultationService) UpdateConsultation(ctx context.Context, patientID, id uuid.UUID, cmd *consultation.UpdateConsultationCommand, caller *domain.Claims, ip string) (*consultation.Consultation, error) {
	if err := access.Check(caller, access.ActionEdit, access.ResourceConsultation); err != nil {
		return nil, err
	}

	var errs []string
	if cmd.Reason != nil && consultation.ContentLen(*cmd.Reason) < consultation.MinReasonLen {
		errs = append(errs, fmt.Sprintf("reason must be at least %d characters", consultation.MinReasonLen))
	}
	if cmd.Notes != nil && consultation.ContentLen(*cmd.Notes) < consultation.MinNotesLen {
		errs = append(errs, fmt.Sprintf("notes must be at least %d characters", consultation.MinNotesLen))
	}
	if cmd.Vitals != nil {
		errs = append(errs, validateVitals(cmd.Vitals)...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	c, err := s.repo.Update(ctx, patientID, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "consultation", ResourceID: id.String(), IPAddress: ip,
	})

	return c, nil
}

// DeleteConsultation is a hard delete with no recovery. Deleting an id
// that does not exist returns ErrConsultationNotFound; surviving
// entries keep their identities, nothing is renumbered.
func (s *ConsultationService) DeleteConsultation(ctx context.Context, patientID, id uuid.UUID, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionDelete, access.ResourceConsultation); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, patientID, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "delete", ResourceType: "consultation", ResourceID: id.String(), IPAddress: ip,
	})

	return nil
}

// ListTimeline returns the patient's consultations ordered by
// consultation date descending.
func (s *ConsultationService) ListTimeline(ctx context.Context, patientID uuid.UUID, caller *domain.Claims, ip string) ([]*consultation.Consultation, error) {
	if err := access.Check(caller, access.ActionView, access.ResourceConsultation); err != nil {
		return nil, err
	}

	if _, err := s.patientRepo.GetByID(ctx, patientID, false); err != nil {
		return nil, err
	}

	list, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "consultation", ResourceID: "patient:" + patientID.String(), IPAddress: ip,
	})

	return list, nil
}

func validateConsultationContent(reason, notes string, vitals *consultation.VitalSigns) error {
	var errs []string

	if consultation.ContentLen(reason) < consultation.MinReasonLen {
		errs = append(errs, fmt.Sprintf("reason must be at least %d characters", consultation.MinReasonLen))
	}
	if consultation.ContentLen(notes) < consultation.MinNotesLen {
		errs = append(errs, fmt.Sprintf("notes must be at least %d characters", consultation.MinNotesLen))
	}
	errs = append(errs, validateVitals(vitals)...)

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateVitals(v *consultation.VitalSigns) []string {
	if v == nil {
		return nil
	}
	var errs []string
	if v.BPSystolic != nil && (*v.BPSystolic < 40 || *v.BPSystolic > 300) {
		errs = append(errs, "bp_systolic out of range")
	}
	if v.BPDiastolic != nil && (*v.BPDiastolic < 20 || *v.BPDiastolic > 200) {
		errs = append(errs, "bp_diastolic out of range")
	}
	if v.HeartRateBPM != nil && (*v.HeartRateBPM < 20 || *v.HeartRateBPM > 300) {
		errs = append(errs, "heart_rate_bpm out of range")
	}
	if v.TemperatureC != nil && (*v.TemperatureC < 25 || *v.TemperatureC > 45) {
		errs = append(errs, "temperature_celsius out of range")
	}
	if v.RespiratoryRate != nil && (*v.RespiratoryRate < 4 || *v.RespiratoryRate > 80) {
		errs = append(errs, "respiratory_rate_bpm out of range")
	}
	if v.OxygenSaturation != nil && (*v.OxygenSaturation < 0 || *v.OxygenSaturation > 100) {
		errs = append(errs, "oxygen_saturation out of range")
	}
	return errs
}
