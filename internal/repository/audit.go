package repository

import (
	"context"
	"fmt"

	"github.com/clinova/praxis/internal/domain"
	"gorm.io/gorm"
)

// AuditLogRepository is append-only; entries are never updated or
// deleted through the application.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}
