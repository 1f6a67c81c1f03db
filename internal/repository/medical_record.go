package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinova/praxis/internal/domain/medical_record"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MedicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

func (r *MedicalRecordRepository) Create(ctx context.Context, rec *medical_record.MedicalRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("creating medical record: %w", err)
	}
	return nil
}

func (r *MedicalRecordRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*medical_record.MedicalRecord, error) {
	var rec medical_record.MedicalRecord
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if err := q.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, medical_record.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fetching medical record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *MedicalRecordRepository) Update(ctx context.Context, id uuid.UUID, cmd *medical_record.UpdateRecordCommand) (*medical_record.MedicalRecord, error) {
	var updated *medical_record.MedicalRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec medical_record.MedicalRecord
		if err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return medical_record.ErrRecordNotFound
			}
			return err
		}

		if cmd.Status != nil {
			rec.Status = *cmd.Status
		}
		if cmd.Vitals != nil {
			rec.Vitals = cmd.Vitals
		}
		if cmd.Diagnosis != nil {
			rec.Diagnosis = *cmd.Diagnosis
		}
		if cmd.ICDCode != nil {
			rec.ICDCode = *cmd.ICDCode
		}
		if cmd.Treatment != nil {
			rec.Treatment = *cmd.Treatment
		}
		if cmd.Notes != nil {
			rec.Notes = *cmd.Notes
		}

		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		updated = &rec
		return nil
	})
	if err != nil {
		if errors.Is(err, medical_record.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating medical record %s: %w", id, err)
	}
	return updated, nil
}

func (r *MedicalRecordRepository) AddAttachment(ctx context.Context, id uuid.UUID, att medical_record.Attachment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec medical_record.MedicalRecord
		if err := tx.Where("id = ? AND deleted_at IS NULL", id).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return medical_record.ErrRecordNotFound
			}
			return err
		}
		rec.Attachments = append(rec.Attachments, att)
		return tx.Model(&rec).Update("attachments", rec.Attachments).Error
	})
	if err != nil {
		if errors.Is(err, medical_record.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("adding attachment to record %s: %w", id, err)
	}
	return nil
}

func (r *MedicalRecordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&medical_record.MedicalRecord{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("deleting medical record %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return medical_record.ErrRecordNotFound
	}
	return nil
}

func (r *MedicalRecordRepository) List(ctx context.Context, q *medical_record.ListRecordsQuery) (*medical_record.PagedRecords, error) {
	db := r.db.WithContext(ctx).Model(&medical_record.MedicalRecord{})

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
	if q.AppointmentID != nil {
		db = db.Where("appointment_id = ?", *q.AppointmentID)
	}
	if q.DateFrom != nil {
		db = db.Where("created_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("created_at <= ?", *q.DateTo)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting medical records: %w", err)
	}

	offset, limit := pageWindow(q.Page, q.PageSize)
	var records []*medical_record.MedicalRecord
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing medical records: %w", err)
	}

	return &medical_record.PagedRecords{
		Records:    records,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *MedicalRecordRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*medical_record.MedicalRecord, error) {
	var rec medical_record.MedicalRecord
	err := r.db.WithContext(ctx).
		Where("appointment_id = ? AND deleted_at IS NULL", appointmentID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, medical_record.ErrRecordNotFound
		}
		return nil, fmt.Errorf("fetching record for appointment %s: %w", appointmentID, err)
	}
	return &rec, nil
}
