package models

import (
	"math"
	"testing"
)

func TestMinMaxScalerTransformInverse(t *testing.T) {
	rows := [][]float64{
		{1, 100, -5},
		{3, 200, 5},
		{2, 150, 0},
	}
	s, err := FitMinMax(rows)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	for _, row := range rows {
		norm, err := s.Transform(row)
		if err != nil {
			t.Fatalf("transform: %v", err)
		}
		for j, v := range norm {
			if v < 0 || v > 1 {
				t.Fatalf("col %d normalized to %v, outside [0,1]", j, v)
			}
		}
		back, err := s.Inverse(norm)
		if err != nil {
			t.Fatalf("inverse: %v", err)
		}
		for j := range row {
			if math.Abs(back[j]-row[j]) > 1e-9 {
				t.Fatalf("col %d: inverse %v, want %v", j, back[j], row[j])
			}
		}
	}
}

func TestMinMaxScalerConstantColumn(t *testing.T) {
	rows := [][]float64{{7, 1}, {7, 2}, {7, 3}}
	s, err := FitMinMax(rows)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	norm, err := s.Transform([]float64{7, 2})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if norm[0] != 0 {
		t.Fatalf("constant column normalized to %v, want 0", norm[0])
	}
}

func TestMinMaxScalerRejectsWrongWidth(t *testing.T) {
	s, err := FitMinMax([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := s.Transform([]float64{1}); err == nil {
		t.Fatalf("expected width error")
	}
	if _, err := s.Inverse([]float64{1, 2, 3}); err == nil {
		t.Fatalf("expected width error")
	}
}

func TestFitMinMaxRejectsEmptyAndRagged(t *testing.T) {
	if _, err := FitMinMax(nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := FitMinMax([][]float64{{1, 2}, {3}}); err == nil {
		t.Fatalf("expected error for ragged rows")
	}
}
