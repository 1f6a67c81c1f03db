package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/access"
	"github.com/clinova/praxis/internal/domain/consultation"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/internal/sequence"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type PatientService struct {
	repo             patient.Repository
	consultationRepo consultation.Repository
	seq              *sequence.Generator
	auditSvc         *AuditService
	collector        *metrics.Collector
	log              *zap.Logger
}

func NewPatientService(repo patient.Repository, consultationRepo consultation.Repository, seq *sequence.Generator, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:             repo,
		consultationRepo: consultationRepo,
		seq:              seq,
		auditSvc:         auditSvc,
		collector:        collector,
		log:              log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, caller *domain.Claims, ip string) (*patient.Patient, error) {
	if err := access.Check(caller, access.ActionCreate, access.ResourcePatient); err != nil {
		return nil, err
	}
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		TenantID:          caller.TenantID,
		FirstName:         strings.TrimSpace(cmd.FirstName),
		LastName:          strings.TrimSpace(cmd.LastName),
		DateOfBirth:       cmd.DateOfBirth,
		Gender:            cmd.Gender,
		BloodType:         cmd.BloodType,
		ContactInfo: patient.ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Email:   strings.ToLower(strings.TrimSpace(cmd.Email)),
			Address: cmd.Address,
			City:    cmd.City,
			State:   cmd.State,
			ZipCode: cmd.ZipCode,
			Country: cmd.Country,
		},
		WeightKg:          cmd.WeightKg,
		HeightCm:          cmd.HeightCm,
		Allergies:         cmd.Allergies,
		AllergyNotes:      cmd.AllergyNotes,
		ChronicConditions: cmd.ChronicConditions,
		Habits:            cmd.Habits,
		FamilyHistory:     cmd.FamilyHistory,
		Insurance:         cmd.Insurance,
		DentalChart:       patient.NewDentalChart(),
		Status:            patient.StatusActive,
		Notes:             cmd.Notes,
		CreatedBy:         cmd.CreatedBy,
	}

	if err := s.createWithNumber(ctx, p, caller.TenantID); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, err
	}
	s.collector.PatientsCreatedTotal.Inc()

	// The creating doctor is the record's first practitioner.
	if caller.Role == domain.RoleDoctor {
		if err := s.repo.Share(ctx, p.ID, caller.UserID); err != nil {
			s.log.Warn("failed to link creating practitioner",
				zap.String("patient_id", p.ID.String()), zap.Error(err))
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("medical_record_number", p.MedicalRecordNumber),
		zap.String("created_by", caller.UserID.String()),
	)

	return p, nil
}

// createWithNumber draws a medical record number and persists the
// patient. A store-level number collision is retried once with a fresh
// draw; counter unavailability fails the whole creation.
func (s *PatientService) createWithNumber(ctx context.Context, p *patient.Patient, tenantID uuid.UUID) error {
	for attempt := 0; attempt < 2; attempt++ {
		mrn, err := s.seq.Next(ctx, sequence.ClassPatient, tenantID)
		if err != nil {
			return fmt.Errorf("drawing medical record number: %w", err)
		}
		p.MedicalRecordNumber = mrn

		err = s.repo.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateNumber) {
			return fmt.Errorf("creating patient: %w", err)
		}
		s.collector.SequenceRedraws.Inc()
		s.log.Warn("medical record number collision, redrawing",
			zap.String("medical_record_number", mrn))
	}
	return domain.ErrDuplicateNumber
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, includeDeleted bool, caller *domain.Claims, ip string) (*patient.Patient, error) {
	if err := access.Check(caller, access.ActionView, access.ResourcePatient); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}

	if includeDeleted {
		// Reads into deleted records are a conscious audit path.
		s.log.Info("deleted-record read",
			zap.String("patient_id", id.String()),
			zap.String("user_id", caller.UserID.String()),
		)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       "read",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return p, nil
}

func (s *PatientService) GetByMedicalRecordNumber(ctx context.Context, mrn string, caller *domain.Claims, ip string) (*patient.Patient, error) {
	if err := access.Check(caller, access.ActionView, access.ResourcePatient); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByMedicalRecordNumber(ctx, mrn)
	if err != nil {
		return nil, err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "read", ResourceType: "patient", ResourceID: p.ID.String(), IPAddress: ip,
	})
	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, caller *domain.Claims, ip string) (*patient.Patient, error) {
	// Contact-only edits are gated by the weaker contact flag; anything
	// touching clinical fields needs medical-record edit rights.
	resource := access.ResourcePatient
	if cmd.IsContactOnly() {
		resource = access.ResourcePatientContact
	}
	if err := access.Check(caller, access.ActionEdit, resource); err != nil {
		return nil, err
	}

	if err := validateUpdateCommand(cmd); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if current.Status == patient.StatusDeceased && cmd.Status == nil {
		return nil, patient.ErrPatientDeceased
	}

	p, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})

	return p, nil
}

// SetToothStatus mutates one dental chart position and stamps the
// chart-wide last-update time.
func (s *PatientService) SetToothStatus(ctx context.Context, patientID uuid.UUID, toothNumber int, status patient.ToothStatus, notes string, caller *domain.Claims, ip string) (*patient.DentalChart, error) {
	if err := access.Check(caller, access.ActionEdit, access.ResourceMedicalRecord); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, patientID, false)
	if err != nil {
		return nil, err
	}

	if err := p.DentalChart.SetTooth(toothNumber, status, notes, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDentalChart(ctx, patientID, &p.DentalChart); err != nil {
		return nil, fmt.Errorf("updating dental chart: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "patient", ResourceID: patientID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"tooth":%d,"status":"%s"}`, toothNumber, status),
	})

	return &p.DentalChart, nil
}

func (s *PatientService) AddPhoto(ctx context.Context, patientID uuid.UUID, url, description string, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionEdit, access.ResourceMedicalRecord); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return &ValidationError{Fields: []string{"url is required"}}
	}

	ref := patient.PhotoRef{URL: url, Description: description, UploadedAt: time.Now().UTC()}
	if err := s.repo.AddPhoto(ctx, patientID, ref); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "patient", ResourceID: patientID.String(), IPAddress: ip,
		Changes: `{"action":"photo_added"}`,
	})
	return nil
}

func (s *PatientService) SetProfilePhoto(ctx context.Context, patientID uuid.UUID, url string, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionEdit, access.ResourcePatientContact); err != nil {
		return err
	}

	var ref *patient.PhotoRef
	if strings.TrimSpace(url) != "" {
		ref = &patient.PhotoRef{URL: url, UploadedAt: time.Now().UTC()}
	}
	return s.repo.SetProfilePhoto(ctx, patientID, ref)
}

// DeletePatient soft-deletes the aggregate. Owned sub-collections go
// with the record; the medical record number is never reissued.
func (s *PatientService) DeletePatient(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionDelete, access.ResourcePatient); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, id, false); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("deleting patient: %w", err)
	}

	// The timeline is exclusively owned: it dies with the patient.
	if err := s.consultationRepo.DeleteByPatient(ctx, id); err != nil {
		return fmt.Errorf("deleting consultation timeline: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "delete", ResourceType: "patient", ResourceID: id.String(), IPAddress: ip,
	})
	return nil
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, caller *domain.Claims, ip string) (*patient.PagedPatients, error) {
	if err := access.Check(caller, access.ActionView, access.ResourcePatient); err != nil {
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
			Action: "read", ResourceType: "patient", ResourceID: "list:include_deleted", IPAddress: ip,
		})
	}

	return s.repo.List(ctx, q)
}

func (s *PatientService) SharePatient(ctx context.Context, patientID, practitionerID uuid.UUID, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionEdit, access.ResourcePatient); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, patientID, false); err != nil {
		return err
	}
	if err := s.repo.Share(ctx, patientID, practitionerID); err != nil {
		return err
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: caller.UserID, UserRole: string(caller.Role),
		Action: "update", ResourceType: "patient", ResourceID: patientID.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"shared_with":"%s"}`, practitionerID),
	})
	return nil
}

func (s *PatientService) UnsharePatient(ctx context.Context, patientID, practitionerID uuid.UUID, caller *domain.Claims, ip string) error {
	if err := access.Check(caller, access.ActionEdit, access.ResourcePatient); err != nil {
		return err
	}
	return s.repo.Unshare(ctx, patientID, practitionerID)
}

func (s *PatientService) Practitioners(ctx context.Context, patientID uuid.UUID, caller *domain.Claims) ([]uuid.UUID, error) {
	if err := access.Check(caller, access.ActionView, access.ResourcePatient); err != nil {
		return nil, err
	}
	return s.repo.Practitioners(ctx, patientID)
}

func validateCreateCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	} else if cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if email := strings.TrimSpace(cmd.Email); email == "" {
		errs = append(errs, "email is required")
	} else if !emailPattern.MatchString(email) {
		errs = append(errs, "email format is invalid")
	}
	if strings.TrimSpace(cmd.Phone) == "" {
		errs = append(errs, "phone is required")
	}
	if !cmd.BloodType.IsValid() {
		errs = append(errs, "blood_type is invalid")
	}
	if cmd.WeightKg < 0 {
		errs = append(errs, "weight_kg cannot be negative")
	}
	if cmd.HeightCm < 0 {
		errs = append(errs, "height_cm cannot be negative")
	}
	for i, a := range cmd.Allergies {
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Sprintf("allergies[%d].name is required", i))
		}
		if !a.Severity.IsValid() {
			errs = append(errs, fmt.Sprintf("allergies[%d].severity is invalid", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateUpdateCommand(cmd *patient.UpdatePatientCommand) error {
	var errs []string

	if cmd.FirstName != nil && strings.TrimSpace(*cmd.FirstName) == "" {
		errs = append(errs, "first_name cannot be empty")
	}
	if cmd.LastName != nil && strings.TrimSpace(*cmd.LastName) == "" {
		errs = append(errs, "last_name cannot be empty")
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if cmd.BloodType != nil && !cmd.BloodType.IsValid() {
		errs = append(errs, "blood_type is invalid")
	}
	if cmd.Email != nil && !emailPattern.MatchString(strings.TrimSpace(*cmd.Email)) {
		errs = append(errs, "email format is invalid")
	}
	if cmd.Status != nil && !cmd.Status.IsValid() {
		errs = append(errs, "status is invalid")
	}
	if cmd.WeightKg != nil && *cmd.WeightKg < 0 {
		errs = append(errs, "weight_kg cannot be negative")
	}
	if cmd.HeightCm != nil && *cmd.HeightCm < 0 {
		errs = append(errs, "height_cm cannot be negative")
	}
	if cmd.Allergies != nil {
		for i, a := range *cmd.Allergies {
			if strings.TrimSpace(a.Name) == "" {
				errs = append(errs, fmt.Sprintf("allergies[%d].name is required", i))
			}
			if !a.Severity.IsValid() {
				errs = append(errs, fmt.Sprintf("allergies[%d].severity is invalid", i))
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
