package patient

import "time"

// ToothStatus is the per-position state on the dental chart.
type ToothStatus string

const (
	ToothHealthy           ToothStatus = "healthy"
	ToothCaries            ToothStatus = "caries"
	ToothFilled            ToothStatus = "filled"
	ToothMissing           ToothStatus = "missing"
	ToothFractured         ToothStatus = "fractured"
	ToothCrowned           ToothStatus = "crowned"
	ToothImplant           ToothStatus = "implant"
	ToothRootCanaled       ToothStatus = "root_canaled"
	ToothExtractionPending ToothStatus = "extraction_pending"
)

func (s ToothStatus) IsValid() bool {
	switch s {
	case ToothHealthy, ToothCaries, ToothFilled, ToothMissing, ToothFractured,
		ToothCrowned, ToothImplant, ToothRootCanaled, ToothExtractionPending:
		return true
	}
	return false
}

// toothNumbers are the 32 adult positions in FDI two-digit notation:
// quadrants 1-4, positions 1-8 within each.
var toothNumbers = func() []int {
	nums := make([]int, 0, 32)
	for q := 1; q <= 4; q++ {
		for t := 1; t <= 8; t++ {
			nums = append(nums, q*10+t)
		}
	}
	return nums
}()

// IsValidToothNumber reports whether n names one of the 32 standard
// adult positions (11-18, 21-28, 31-38, 41-48).
func IsValidToothNumber(n int) bool {
	q, t := n/10, n%10
	return q >= 1 && q <= 4 && t >= 1 && t <= 8
}

type ToothRecord struct {
	Number int         `json:"number"`
	Status ToothStatus `json:"status"`
	Notes  string      `json:"notes,omitempty"`
}

// DentalChart is the odontogram: all 32 positions, always present, with
// one chart-wide LastUpdate stamped on every mutation.
type DentalChart struct {
	Teeth      []ToothRecord `json:"teeth"`
	LastUpdate *time.Time    `json:"last_update,omitempty"`
}

// NewDentalChart returns a chart with every position present and
// healthy. Charts are created full so a round-trip always yields the
// complete 32-entry set.
func NewDentalChart() DentalChart {
	teeth := make([]ToothRecord, len(toothNumbers))
	for i, n := range toothNumbers {
		teeth[i] = ToothRecord{Number: n, Status: ToothHealthy}
	}
	return DentalChart{Teeth: teeth}
}

// Tooth returns the record at the given FDI position, or nil if the
// number is not a valid position.
func (c *DentalChart) Tooth(number int) *ToothRecord {
	for i := range c.Teeth {
		if c.Teeth[i].Number == number {
			return &c.Teeth[i]
		}
	}
	return nil
}

// SetTooth updates one position and stamps the chart's LastUpdate.
// Charts persisted before a schema change may be sparse; missing
// positions are filled in on first write.
func (c *DentalChart) SetTooth(number int, status ToothStatus, notes string, now time.Time) error {
	if !IsValidToothNumber(number) {
		return ErrInvalidToothNumber
	}
	if !status.IsValid() {
		return ErrInvalidToothStatus
	}

	if len(c.Teeth) == 0 {
		*c = NewDentalChart()
	}

	rec := c.Tooth(number)
	if rec == nil {
		c.Teeth = append(c.Teeth, ToothRecord{Number: number})
		rec = &c.Teeth[len(c.Teeth)-1]
	}
	rec.Status = status
	rec.Notes = notes
	c.LastUpdate = &now
	return nil
}
