// Package sequence mints the human-readable record numbers backing
// patients, appointments and prescriptions. One authoritative counter
// row exists per (entity class, tenant); issuance increments it with a
// single atomic statement at the store, never by counting rows —
// counting is racy under concurrent inserts and soft deletes make
// counts unstable. Issued numbers are never reused, even when the
// owning record is later deleted.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Class partitions counters so concurrent creations of different
// record kinds never contend or collide.
type Class string

const (
	ClassPatient      Class = "patient"
	ClassAppointment  Class = "appointment"
	ClassPrescription Class = "prescription"
)

func (c Class) IsValid() bool {
	switch c {
	case ClassPatient, ClassAppointment, ClassPrescription:
		return true
	}
	return false
}

// prefixes chosen to match the numbers printed on paper records.
var prefixes = map[Class]string{
	ClassPatient:      "P",
	ClassAppointment:  "APT",
	ClassPrescription: "RX",
}

var (
	ErrUnknownClass = errors.New("unknown sequence class")
	// ErrUnavailable wraps store failures: creation must fail atomically
	// when the counter cannot be drawn, never persist a record without
	// its identifier.
	ErrUnavailable = errors.New("sequence counter store unavailable")
)

// Counter is the authoritative per-class, per-tenant counter row.
type Counter struct {
	Class     Class     `gorm:"column:class;type:varchar(30);primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey"`
	Value     int64     `gorm:"column:value;not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Counter) TableName() string {
	return "clinical.sequence_counters"
}

// Store draws the next raw value. Implementations must make Next
// atomic: two concurrent calls never observe the same value.
type Store interface {
	Next(ctx context.Context, class Class, tenantID uuid.UUID) (int64, error)
}

type Generator struct {
	store Store
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// Next returns the next formatted identifier for the class within the
// tenant, e.g. "P-000042". Padding is fixed at six digits and widens
// naturally beyond 999999.
func (g *Generator) Next(ctx context.Context, class Class, tenantID uuid.UUID) (string, error) {
	if !class.IsValid() {
		return "", ErrUnknownClass
	}
	n, err := g.store.Next(ctx, class, tenantID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Format(class, n), nil
}

// Format renders a raw counter value as the class's record number.
func Format(class Class, n int64) string {
	return fmt.Sprintf("%s-%06d", prefixes[class], n)
}
