package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/access"
	mr "github.com/clinova/praxis/internal/domain/medical_record"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MedicalRecordService struct {
	repo        mr.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewMedicalRecordService(repo mr.Repository, patientRepo patient.Repository, auditSvc *AuditService, log *zap.Logger) *MedicalRecordService {
	return &MedicalRecordService{repo: repo, patientRepo: patientRepo, auditSvc: auditSvc, log: log}
}

func (s *MedicalRecordService) CreateRecord(ctx context.Context, cmd *mr.CreateRecordCommand, caller *domain.Claims, ip string) (*mr.MedicalRecord, error) {
	if err := access.Check(caller, access.ActionCreate, access.ResourceMedicalRecord); err != nil {
		return nil, err
	}

	var errs []string
	if strings.TrimSpace(cmd.Diagnosis) == "" {
		errs = append(errs, "diagnosis is required")
	}
	errs = append(errs, validateVitals(cmd.Vitals)...)
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if _, err := s.patientRepo.GetByID(ctx, cmd.PatientID, false); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	record := &mr.MedicalRecord{
		PatientID:     cmd.PatientID,
		AppointmentID: cmd.AppointmentID,
		DoctorID:      cmd.DoctorID,
		Status:        mr.StatusInProgress,
		Vitals:        cmd.Vitals,
		Diagnosis:     strings.TrimSpace(cmd.Diagnosis),
		ICDCode:       cmd.ICDCode,
		Treatment:     cmd.Treatment,
		Notes:         cmd.Notes,
		CreatedBy:     cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("creating medical record: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "create", ResourceType: "medical_record", ResourceID: record.ID.String(), IPAddress: ip,
	})

	return record, nil
}

func (s *MedicalRecordService) GetRecord(ctx context.Context, id uuid.UUID, includeDeleted bool, caller *domain.Claims, ip string) (*mr.MedicalRecord, error) {
	if err := access.Check(caller, access.ActionView, access.ResourceMedicalRecord); err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}

	if includeDeleted {
		s.log.Info("deleted-record read",
			zap.String("medical_record_id", id.String()),
			zap.String("user_id", caller.UserID.String()),
		)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "medical_record", ResourceID: id.String(), IPAddress: ip,
	})

	return record, nil
}

// GetRecordByAppointment resolves the record written during a given
// appointment, if one exists.
func (s *MedicalRecordService) GetRecordByAppointment(ctx context.Context, appointmentID uuid.UUID, caller *domain.Claims, ip string) (*mr.MedicalRecord, error) {
	if err := access.Check(caller, access.ActionView, access.ResourceMedicalRecord); err != nil {
		return nil, err
	}

	record, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "medical_record", ResourceID: record.ID.String(), IPAddress: ip,
	})

	return record, nil
}

func (s *MedicalRecordService) UpdateRecord(ctx context.Context, id uuid.UUID, cmd *mr.UpdateRecordCommand, caller *domain.Claims, ip string) (*mr.MedicalRecord, error) {
	if err := access.Check(caller, access.ActionEdit, access.ResourceMedicalRecord); err != nil {
		return nil, err
	}

	var errs []string
	if cmd.Diagnosis != nil && strings.TrimSpace(*cmd.Diagnosis) == "" {
		errs = append(errs, "diagnosis cannot be empty")
	}
	if cmd.Status != nil && !cmd.Status.IsValid() {
		errs = append(errs, "status is invalid")
	}
	if cmd.Vitals != nil {
		errs = append(errs, validateVitals(cmd.Vitals)...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	record, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "medical_record", ResourceID: id.String(), IPAddress: ip,
	})

	return record, nil
}

// AddAttachment stores a file reference; binary content lives on the
// external object host.
func (s *MedicalRecordService) AddAttachment(ctx context.Context, id uuid.UUID, fileName, contentType, url string, sizeBytes int64, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionEdit, access.ResourceMedicalRecord); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return &ValidationError{Fields: []string{"url is required"}}
	}

	att := mr.Attachment{
		ID:          uuid.New(),
		FileName:    fileName,
		ContentType: contentType,
		URL:         url,
		SizeBytes:   sizeBytes,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.repo.AddAttachment(ctx, id, att); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "medical_record", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"action":"attachment_added"}`,
	})
	return nil
}

func (s *MedicalRecordService) DeleteRecord(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionDelete, access.ResourceMedicalRecord); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id, false); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("deleting medical record: %w", err)
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "delete", ResourceType: "medical_record", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *MedicalRecordService) ListRecords(ctx context.Context, q *mr.ListRecordsQuery, caller *domain.Claims, ip string) (*mr.PagedRecords, error) {
	if err := access.Check(caller, access.ActionView, access.ResourceMedicalRecord); err != nil {
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
			Action: "read", ResourceType: "medical_record", ResourceID: "list:include_deleted", IPAddress: ip,
		})
	}
	return s.repo.List(ctx, q)
}
