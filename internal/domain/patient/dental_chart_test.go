package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDentalChart(t *testing.T) {
	chart := NewDentalChart()

	require.Len(t, chart.Teeth, 32)
	assert.Nil(t, chart.LastUpdate)

	seen := make(map[int]bool)
	for _, rec := range chart.Teeth {
		assert.Equal(t, ToothHealthy, rec.Status)
		assert.True(t, IsValidToothNumber(rec.Number), "tooth %d", rec.Number)
		assert.False(t, seen[rec.Number], "duplicate tooth %d", rec.Number)
		seen[rec.Number] = true
	}
}

func TestIsValidToothNumber(t *testing.T) {
	for _, n := range []int{11, 18, 21, 28, 31, 38, 41, 48} {
		assert.True(t, IsValidToothNumber(n), "tooth %d", n)
	}
	for _, n := range []int{0, 1, 10, 19, 20, 29, 39, 49, 50, 55, 100, -11} {
		assert.False(t, IsValidToothNumber(n), "tooth %d", n)
	}
}

func TestSetTooth(t *testing.T) {
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	t.Run("updates position and stamps chart", func(t *testing.T) {
		chart := NewDentalChart()
		err := chart.SetTooth(16, ToothCaries, "distal surface", now)
		require.NoError(t, err)

		rec := chart.Tooth(16)
		require.NotNil(t, rec)
		assert.Equal(t, ToothCaries, rec.Status)
		assert.Equal(t, "distal surface", rec.Notes)
		require.NotNil(t, chart.LastUpdate)
		assert.Equal(t, now, *chart.LastUpdate)
	})

	t.Run("rejects invalid tooth number", func(t *testing.T) {
		chart := NewDentalChart()
		err := chart.SetTooth(19, ToothCaries, "", now)
		assert.ErrorIs(t, err, ErrInvalidToothNumber)
		assert.Nil(t, chart.LastUpdate)
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		chart := NewDentalChart()
		err := chart.SetTooth(16, ToothStatus("gold_plated"), "", now)
		assert.ErrorIs(t, err, ErrInvalidToothStatus)
	})

	t.Run("fills an empty chart on first write", func(t *testing.T) {
		var chart DentalChart
		err := chart.SetTooth(24, ToothFilled, "", now)
		require.NoError(t, err)

		assert.Len(t, chart.Teeth, 32)
		rec := chart.Tooth(24)
		require.NotNil(t, rec)
		assert.Equal(t, ToothFilled, rec.Status)
	})

	t.Run("fills a sparse chart position", func(t *testing.T) {
		chart := DentalChart{Teeth: []ToothRecord{{Number: 11, Status: ToothHealthy}}}
		err := chart.SetTooth(48, ToothMissing, "", now)
		require.NoError(t, err)

		rec := chart.Tooth(48)
		require.NotNil(t, rec)
		assert.Equal(t, ToothMissing, rec.Status)
	})
}

func TestToothUnknownPosition(t *testing.T) {
	chart := NewDentalChart()
	assert.Nil(t, chart.Tooth(99))
}
