package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/prescription"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isDuplicateKey(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("creating prescription: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*prescription.Prescription, error) {
	var p prescription.Prescription
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("fetching prescription %s: %w", id, err)
	}
	return &p, nil
}

func (r *PrescriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status prescription.PrescriptionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("updating prescription %s status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("deleting prescription %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) List(ctx context.Context, q *prescription.ListPrescriptionsQuery) (*prescription.PagedPrescriptions, error) {
	db := r.db.WithContext(ctx).Model(&prescription.Prescription{})

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

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting prescriptions: %w", err)
	}

	offset, limit := pageWindow(q.Page, q.PageSize)
	var prescriptions []*prescription.Prescription
	if err := db.Order("issued_at DESC").Offset(offset).Limit(limit).Find(&prescriptions).Error; err != nil {
		return nil, fmt.Errorf("listing prescriptions: %w", err)
	}

	return &prescription.PagedPrescriptions{
		Prescriptions: prescriptions,
		TotalCount:    total,
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalPages:    totalPages(total, q.PageSize),
	}, nil
}

func (r *PrescriptionRepository) GetActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error) {
	var prescriptions []*prescription.Prescription
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND status = ? AND deleted_at IS NULL", patientID, prescription.StatusActive).
		Order("issued_at DESC").
		Find(&prescriptions).Error
	if err != nil {
		return nil, fmt.Errorf("listing active prescriptions for %s: %w", patientID, err)
	}
	return prescriptions, nil
}

// ExpireDue is a single set-based sweep: every active prescription past
// its validity window flips to expired in one statement.
func (r *PrescriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&prescription.Prescription{}).
		Where("status = ? AND valid_until < ? AND deleted_at IS NULL", prescription.StatusActive, now).
		Update("status", prescription.StatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expiring prescriptions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
