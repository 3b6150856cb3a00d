package models

import "testing"

func TestDefaultPartitionIsValid(t *testing.T) {
	if err := ValidatePartition(DefaultPartition()); err != nil {
		t.Fatalf("default partition invalid: %v", err)
	}
}

func TestDefaultPartitionCoversHour(t *testing.T) {
	covered := make([]bool, 60)
	for _, h := range DefaultPartition() {
		for m := h.Start; m < h.End; m++ {
			if covered[m] {
				t.Fatalf("minute %d covered twice", m)
			}
			covered[m] = true
		}
	}
	for m, ok := range covered {
		if !ok {
			t.Fatalf("minute %d not covered", m)
		}
	}
}

func TestValidatePartitionRejectsGap(t *testing.T) {
	horizons := []Horizon{
		{ID: 1, Start: 0, End: 1, WindowMinutes: 2880},
		{ID: 2, Start: 2, End: 60, WindowMinutes: 2880},
	}
	if err := ValidatePartition(horizons); err == nil {
		t.Fatalf("expected error for gap at minute 1")
	}
}

func TestValidatePartitionRejectsShortCoverage(t *testing.T) {
	horizons := []Horizon{
		{ID: 1, Start: 0, End: 30, WindowMinutes: 2880},
	}
	if err := ValidatePartition(horizons); err == nil {
		t.Fatalf("expected error for 30-minute coverage")
	}
}

func TestValidatePartitionRejectsUnsortedIDs(t *testing.T) {
	horizons := []Horizon{
		{ID: 2, Start: 0, End: 30, WindowMinutes: 2880},
		{ID: 1, Start: 30, End: 60, WindowMinutes: 2880},
	}
	if err := ValidatePartition(horizons); err == nil {
		t.Fatalf("expected error for unsorted ids")
	}
}

func TestValidatePartitionRejectsZeroWindow(t *testing.T) {
	horizons := []Horizon{
		{ID: 1, Start: 0, End: 60, WindowMinutes: 0},
	}
	if err := ValidatePartition(horizons); err == nil {
		t.Fatalf("expected error for zero window")
	}
}

func TestMaxWindowMinutes(t *testing.T) {
	if got := MaxWindowMinutes(DefaultPartition()); got != 8640 {
		t.Fatalf("max window = %d, want 8640", got)
	}
}
