package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore mimics the database counter with a mutex standing in for
// row-level serialization.
type memStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMemStore() *memStore {
	return &memStore{counters: make(map[string]int64)}
}

func (s *memStore) Next(_ context.Context, class Class, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(class) + "/" + tenantID.String()
	s.counters[key]++
	return s.counters[key], nil
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "P-000001", Format(ClassPatient, 1))
	assert.Equal(t, "APT-000042", Format(ClassAppointment, 42))
	assert.Equal(t, "RX-999999", Format(ClassPrescription, 999999))
	// Padding widens past six digits rather than truncating.
	assert.Equal(t, "P-1000000", Format(ClassPatient, 1000000))
}

func TestGeneratorNext(t *testing.T) {
	gen := NewGenerator(newMemStore())
	tenant := uuid.New()

	first, err := gen.Next(context.Background(), ClassPatient, tenant)
	require.NoError(t, err)
	assert.Equal(t, "P-000001", first)

	second, err := gen.Next(context.Background(), ClassPatient, tenant)
	require.NoError(t, err)
	assert.Equal(t, "P-000002", second)
}

func TestGeneratorRejectsUnknownClass(t *testing.T) {
	gen := NewGenerator(newMemStore())
	_, err := gen.Next(context.Background(), Class("invoice"), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestClassesDoNotShareCounters(t *testing.T) {
	gen := NewGenerator(newMemStore())
	tenant := uuid.New()

	p, err := gen.Next(context.Background(), ClassPatient, tenant)
	require.NoError(t, err)
	a, err := gen.Next(context.Background(), ClassAppointment, tenant)
	require.NoError(t, err)

	assert.Equal(t, "P-000001", p)
	assert.Equal(t, "APT-000001", a)
}

func TestTenantsDoNotShareCounters(t *testing.T) {
	gen := NewGenerator(newMemStore())

	first, err := gen.Next(context.Background(), ClassPatient, uuid.New())
	require.NoError(t, err)
	second, err := gen.Next(context.Background(), ClassPatient, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, first, second) // both tenants start at 1
}

func TestConcurrentDrawsAreDistinct(t *testing.T) {
	gen := NewGenerator(newMemStore())
	tenant := uuid.New()

	const n = 100
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := gen.Next(context.Background(), ClassPrescription, tenant)
			assert.NoError(t, err)
			results <- id
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, n)
	for id := range results {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
