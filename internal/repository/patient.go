package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("creating patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*patient.Patient, error) {
	var p patient.Patient
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient %s: %w", id, err)
	}
	return &p, nil
}

func (r *PatientRepository) GetByMedicalRecordNumber(ctx context.Context, mrn string) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).
		Where("medical_record_number = ? AND deleted_at IS NULL", mrn).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient by record number: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	var updated *patient.Patient
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p patient.Patient
		if err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return patient.ErrPatientNotFound
			}
			return err
		}

		applyPatientUpdate(&p, cmd)

		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		updated = &p
		return nil
	})
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating patient %s: %w", id, err)
	}
	return updated, nil
}

func applyPatientUpdate(p *patient.Patient, cmd *patient.UpdatePatientCommand) {
	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.BloodType != nil {
		p.BloodType = *cmd.BloodType
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		p.Email = *cmd.Email
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.City != nil {
		p.City = *cmd.City
	}
	if cmd.State != nil {
		p.State = *cmd.State
	}
	if cmd.ZipCode != nil {
		p.ZipCode = *cmd.ZipCode
	}
	if cmd.Country != nil {
		p.Country = *cmd.Country
	}
	if cmd.WeightKg != nil {
		p.WeightKg = *cmd.WeightKg
	}
	if cmd.HeightCm != nil {
		p.HeightCm = *cmd.HeightCm
	}
	if cmd.Allergies != nil {
		p.Allergies = *cmd.Allergies
	}
	if cmd.AllergyNotes != nil {
		p.AllergyNotes = *cmd.AllergyNotes
	}
	if cmd.ChronicConditions != nil {
		p.ChronicConditions = *cmd.ChronicConditions
	}
	if cmd.Habits != nil {
		p.Habits = *cmd.Habits
	}
	if cmd.FamilyHistory != nil {
		p.FamilyHistory = *cmd.FamilyHistory
	}
	if cmd.Insurance != nil {
		p.Insurance = cmd.Insurance
	}
	if cmd.Status != nil {
		p.Status = *cmd.Status
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}
}

func (r *PatientRepository) UpdateDentalChart(ctx context.Context, id uuid.UUID, chart *patient.DentalChart) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("dental_chart", chart)
	if res.Error != nil {
		return fmt.Errorf("updating dental chart for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) AddPhoto(ctx context.Context, id uuid.UUID, ref patient.PhotoRef) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p patient.Patient
		if err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return patient.ErrPatientNotFound
			}
			return err
		}
		p.Photos = append(p.Photos, ref)
		return tx.Model(&p).Update("photos", p.Photos).Error
	})
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			return err
		}
		return fmt.Errorf("adding photo for %s: %w", id, err)
	}
	return nil
}

func (r *PatientRepository) SetProfilePhoto(ctx context.Context, id uuid.UUID, ref *patient.PhotoRef) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("profile_photo", ref)
	if res.Error != nil {
		return fmt.Errorf("setting profile photo for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

// SoftDelete stamps the patient row; the embedded sub-collections go
// with it, the consultation timeline is removed by the service.
func (r *PatientRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("deleting patient %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	db := r.db.WithContext(ctx).Model(&patient.Patient{})

	if !q.IncludeDeleted {
		db = db.Where("deleted_at IS NULL")
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR medical_record_number ILIKE ?",
			pattern, pattern, pattern,
		)
	}
	if q.PractitionerID != nil {
		db = db.Where(
			"id IN (SELECT patient_id FROM clinical.patient_practitioners WHERE practitioner_id = ?)",
			*q.PractitionerID,
		)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	sortBy := "created_at"
	switch q.SortBy {
	case "last_name", "first_name", "date_of_birth", "medical_record_number":
		sortBy = q.SortBy
	}
	order := sortBy + " DESC"
	if q.SortOrder == "asc" {
		order = sortBy + " ASC"
	}

	offset, limit := pageWindow(q.Page, q.PageSize)
	var patients []*patient.Patient
	if err := db.Order(order).Offset(offset).Limit(limit).Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *PatientRepository) Share(ctx context.Context, patientID, practitionerID uuid.UUID) error {
	link := patient.PractitionerLink{
		PatientID:      patientID,
		PractitionerID: practitionerID,
	}
	if err := r.db.WithContext(ctx).Create(&link).Error; err != nil {
		// Sharing twice is a no-op, not a failure.
		if isDuplicateKey(err) {
			return nil
		}
		return fmt.Errorf("sharing patient %s: %w", patientID, err)
	}
	return nil
}

func (r *PatientRepository) Unshare(ctx context.Context, patientID, practitionerID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("patient_id = ? AND practitioner_id = ?", patientID, practitionerID).
		Delete(&patient.PractitionerLink{})
	if res.Error != nil {
		return fmt.Errorf("unsharing patient %s: %w", patientID, res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrNotShared
	}
	return nil
}

func (r *PatientRepository) Practitioners(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&patient.PractitionerLink{}).
		Where("patient_id = ?", patientID).
		Pluck("practitioner_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing practitioners for %s: %w", patientID, err)
	}
	return ids, nil
}
