package models

import "fmt"

// Horizon is a forward-looking minute interval [Start, End) relative to the
// reference time, served by its own model trained on WindowMinutes of history.
type Horizon struct {
	ID            int
	Start         int
	End           int
	WindowMinutes int
}

// DefaultPartition returns the 12 horizons partitioning the next 60 minutes.
// Short horizons use two days of history, medium three, long four, and the
// final half-hour block six.
func DefaultPartition() []Horizon {
	return []Horizon{
		{ID: 1, Start: 0, End: 1, WindowMinutes: 2880},
		{ID: 2, Start: 1, End: 2, WindowMinutes: 2880},
		{ID: 3, Start: 2, End: 3, WindowMinutes: 2880},
		{ID: 4, Start: 3, End: 4, WindowMinutes: 2880},
		{ID: 5, Start: 4, End: 5, WindowMinutes: 2880},
		{ID: 6, Start: 5, End: 6, WindowMinutes: 2880},
		{ID: 10, Start: 6, End: 10, WindowMinutes: 4320},
		{ID: 12, Start: 10, End: 12, WindowMinutes: 4320},
		{ID: 15, Start: 12, End: 15, WindowMinutes: 4320},
		{ID: 20, Start: 15, End: 20, WindowMinutes: 5760},
		{ID: 30, Start: 20, End: 30, WindowMinutes: 5760},
		{ID: 60, Start: 30, End: 60, WindowMinutes: 8640},
	}
}

// ValidatePartition checks that horizons are sorted, contiguous, start at 0,
// and cover exactly [0, 60) minutes. Violations are fatal at startup.
func ValidatePartition(horizons []Horizon) error {
	if len(horizons) == 0 {
		return fmt.Errorf("horizon partition is empty")
	}
	last := 0
	prevID := 0
	for _, h := range horizons {
		if h.ID <= prevID {
			return fmt.Errorf("horizon %d: ids must be strictly increasing", h.ID)
		}
		prevID = h.ID
		if h.Start != last {
			return fmt.Errorf("horizon %d: interval [%d,%d) must start at %d", h.ID, h.Start, h.End, last)
		}
		if h.End <= h.Start {
			return fmt.Errorf("horizon %d: interval [%d,%d) is empty", h.ID, h.Start, h.End)
		}
		if h.WindowMinutes <= 0 {
			return fmt.Errorf("horizon %d: training window must be positive", h.ID)
		}
		last = h.End
	}
	if last != 60 {
		return fmt.Errorf("horizon intervals cover %d minutes, expected 60", last)
	}
	return nil
}

// MaxWindowMinutes returns the largest training window across horizons.
func MaxWindowMinutes(horizons []Horizon) int {
	max := 0
	for _, h := range horizons {
		if h.WindowMinutes > max {
			max = h.WindowMinutes
		}
	}
	return max
}
