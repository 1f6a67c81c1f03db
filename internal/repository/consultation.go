package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinova/praxis/internal/domain/consultation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

func (r *ConsultationRepository) Create(ctx context.Context, c *consultation.Consultation) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("creating consultation: %w", err)
	}
	return nil
}

func (r *ConsultationRepository) GetByID(ctx context.Context, patientID, id uuid.UUID) (*consultation.Consultation, error) {
	var c consultation.Consultation
	err := r.db.WithContext(ctx).
		Where("id = ? AND patient_id = ?", id, patientID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, consultation.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("fetching consultation %s: %w", id, err)
	}
	return &c, nil
}

func (r *ConsultationRepository) Update(ctx context.Context, patientID, id uuid.UUID, cmd *consultation.UpdateConsultationCommand) (*consultation.Consultation, error) {
	var updated *consultation.Consultation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c consultation.Consultation
		if err := tx.Where("id = ? AND patient_id = ?", id, patientID).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return consultation.ErrConsultationNotFound
			}
			return err
		}

		if cmd.ConsultationDate != nil {
			c.ConsultationDate = *cmd.ConsultationDate
		}
		if cmd.Reason != nil {
			c.Reason = *cmd.Reason
		}
		if cmd.Symptoms != nil {
			c.Symptoms = *cmd.Symptoms
		}
		if cmd.SymptomDuration != nil {
			c.SymptomDuration = *cmd.SymptomDuration
		}
		if cmd.Vitals != nil {
			c.Vitals = cmd.Vitals
		}
		if cmd.Notes != nil {
			c.Notes = *cmd.Notes
		}

		if err := tx.Save(&c).Error; err != nil {
			return err
		}
		updated = &c
		return nil
	})
	if err != nil {
		if errors.Is(err, consultation.ErrConsultationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating consultation %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes the row permanently. Surviving timeline entries keep
// their identity; nothing is renumbered.
func (r *ConsultationRepository) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND patient_id = ?", id, patientID).
		Delete(&consultation.Consultation{})
	if res.Error != nil {
		return fmt.Errorf("deleting consultation %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return consultation.ErrConsultationNotFound
	}
	return nil
}

func (r *ConsultationRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*consultation.Consultation, error) {
	var entries []*consultation.Consultation
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("consultation_date DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("listing consultations for %s: %w", patientID, err)
	}
	return entries, nil
}

func (r *ConsultationRepository) DeleteByPatient(ctx context.Context, patientID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Delete(&consultation.Consultation{}).Error
	if err != nil {
		return fmt.Errorf("deleting consultations for %s: %w", patientID, err)
	}
	return nil
}
