package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		asOf time.Time
		want int
	}{
		{"birthday passed this year", date(1990, time.March, 15), date(2024, time.June, 1), 34},
		{"birthday not yet reached", date(1990, time.September, 15), date(2024, time.June, 1), 33},
		{"on the birthday itself", date(1990, time.June, 1), date(2024, time.June, 1), 34},
		{"day before the birthday", date(1990, time.June, 2), date(2024, time.June, 1), 33},
		{"leap-day birth, Feb 28 of non-leap year", date(2000, time.February, 29), date(2023, time.February, 28), 22},
		{"leap-day birth, Mar 1 of non-leap year", date(2000, time.February, 29), date(2023, time.March, 1), 23},
		{"leap-day birth, Feb 29 of leap year", date(2000, time.February, 29), date(2024, time.February, 29), 24},
		{"newborn", date(2024, time.January, 10), date(2024, time.June, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.dob, tt.asOf))
		})
	}
}

func TestComputeBMI(t *testing.T) {
	t.Run("rounded to one decimal", func(t *testing.T) {
		got := ComputeBMI(70, 175)
		require.NotNil(t, got)
		assert.Equal(t, 22.9, *got)
	})

	t.Run("another rounding case", func(t *testing.T) {
		got := ComputeBMI(80, 180)
		require.NotNil(t, got)
		assert.Equal(t, 24.7, *got)
	})

	t.Run("zero weight yields nil", func(t *testing.T) {
		assert.Nil(t, ComputeBMI(0, 175))
	})

	t.Run("zero height yields nil", func(t *testing.T) {
		assert.Nil(t, ComputeBMI(70, 0))
	})

	t.Run("negative inputs yield nil", func(t *testing.T) {
		assert.Nil(t, ComputeBMI(-70, 175))
		assert.Nil(t, ComputeBMI(70, -175))
	})
}

func TestPatientDerived(t *testing.T) {
	p := &Patient{
		DateOfBirth: date(1985, time.May, 20),
		WeightKg:    62,
		HeightCm:    168,
	}

	assert.Equal(t, 39, p.Age(date(2024, time.June, 1)))

	bmi := p.BMI()
	require.NotNil(t, bmi)
	assert.Equal(t, 22.0, *bmi)

	p.WeightKg = 0
	assert.Nil(t, p.BMI())
}
