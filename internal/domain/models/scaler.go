package models

import "fmt"

// MinMaxScaler range-normalizes columns to [0,1]. Features and targets get
// separate scalers: absolute prices and deltas differ by orders of magnitude,
// so sharing one scaler corrupts denormalization.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitMinMax computes per-column min/max over rows.
func FitMinMax(rows [][]float64) (*MinMaxScaler, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("fit scaler: no data")
	}
	cols := len(rows[0])
	s := &MinMaxScaler{Min: make([]float64, cols), Max: make([]float64, cols)}
	copy(s.Min, rows[0])
	copy(s.Max, rows[0])
	for _, row := range rows[1:] {
		if len(row) != cols {
			return nil, fmt.Errorf("fit scaler: ragged row, want %d cols got %d", cols, len(row))
		}
		for j, v := range row {
			if v < s.Min[j] {
				s.Min[j] = v
			}
			if v > s.Max[j] {
				s.Max[j] = v
			}
		}
	}
	return s, nil
}

// Transform normalizes one row in place-safe fashion (returns a new slice).
// Constant columns map to 0.
func (s *MinMaxScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Min) {
		return nil, fmt.Errorf("scaler transform: want %d cols got %d", len(s.Min), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		span := s.Max[j] - s.Min[j]
		if span == 0 {
			out[j] = 0
			continue
		}
		out[j] = (v - s.Min[j]) / span
	}
	return out, nil
}

// TransformAll normalizes a matrix row by row.
func (s *MinMaxScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		t, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// Inverse maps a normalized row back to the original range.
func (s *MinMaxScaler) Inverse(row []float64) ([]float64, error) {
	if len(row) != len(s.Min) {
		return nil, fmt.Errorf("scaler inverse: want %d cols got %d", len(s.Min), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = s.Min[j] + v*(s.Max[j]-s.Min[j])
	}
	return out, nil
}
