package repository

import (
	"context"
	"fmt"

	"github.com/clinova/praxis/internal/sequence"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceStore backs the identifier generator with one counter row
// per (class, tenant). Next is a single upserting statement so two
// concurrent draws can never observe the same value: the database
// serializes the row update, and RETURNING hands back the claimed
// value atomically.
type SequenceStore struct {
	db *gorm.DB
}

func NewSequenceStore(db *gorm.DB) *SequenceStore {
	return &SequenceStore{db: db}
}

func (s *SequenceStore) Next(ctx context.Context, class sequence.Class, tenantID uuid.UUID) (int64, error) {
	counter := sequence.Counter{
		Class:    class,
		TenantID: tenantID,
		Value:    1,
	}

	err := s.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "class"}, {Name: "tenant_id"}},
				DoUpdates: clause.Assignments(map[string]any{"value": gorm.Expr("clinical.sequence_counters.value + 1")}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "value"}}},
		).
		Create(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("drawing %s counter for tenant %s: %w", class, tenantID, err)
	}

	return counter.Value, nil
}
