package patient

import (
	"math"
	"time"
)

// AgeAt returns whole years elapsed between dateOfBirth and asOf. A
// birthday not yet reached in the asOf year does not count. Someone
// born Feb 29 ages on Mar 1 in non-leap years: the month/day comparison
// below never matches Feb 29 in such years, so Mar 1 is the first date
// on which the birthday counts as reached.
func AgeAt(dateOfBirth, asOf time.Time) int {
	years := asOf.Year() - dateOfBirth.Year()
	if asOf.Month() < dateOfBirth.Month() ||
		(asOf.Month() == dateOfBirth.Month() && asOf.Day() < dateOfBirth.Day()) {
		years--
	}
	return years
}

// ComputeBMI returns weight / (height/100)^2 rounded to one decimal
// place, or nil when either input is zero or negative. It never
// divides by zero.
func ComputeBMI(weightKg, heightCm float64) *float64 {
	if weightKg <= 0 || heightCm <= 0 {
		return nil
	}
	m := heightCm / 100
	bmi := math.Round(weightKg/(m*m)*10) / 10
	return &bmi
}
