package usecase

import (
	"fmt"

	"FinCast/internal/domain/models"
)

// baseColumns is the OHLCV width of one candle.
const baseColumns = 5

// FeatureBuilder derives a multi-scale feature matrix from a window of minute
// candles. For every configured scale beyond one minute, candles are grouped
// into blocks of that many minutes and each block's aggregate (first open,
// max high, min low, last close, summed volume) is propagated to every minute
// the block covers. Multi-scale resampling lets a single-timestep model see
// short- and long-term context, trading sequence length for feature width.
type FeatureBuilder struct {
	scales []int
}

// NewFeatureBuilder validates the re-aggregation scales: ascending, positive,
// and beginning with the native 1-minute scale.
func NewFeatureBuilder(scales []int) (*FeatureBuilder, error) {
	if len(scales) == 0 {
		return nil, fmt.Errorf("feature builder: no resample scales")
	}
	if scales[0] != 1 {
		return nil, fmt.Errorf("feature builder: first scale must be 1, got %d", scales[0])
	}
	for i := 1; i < len(scales); i++ {
		if scales[i] <= scales[i-1] {
			return nil, fmt.Errorf("feature builder: scales must be strictly ascending at index %d", i)
		}
	}
	return &FeatureBuilder{scales: scales}, nil
}

// Columns returns the feature matrix width: OHLCV plus five aggregate columns
// per extra scale.
func (b *FeatureBuilder) Columns() int {
	return baseColumns * len(b.scales)
}

// Build returns one feature row per candle in the window.
func (b *FeatureBuilder) Build(window []models.Candle) ([][]float64, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("build features: empty window: %w", ErrInsufficientData)
	}

	cols := b.Columns()
	rows := make([][]float64, len(window))
	for i, c := range window {
		row := make([]float64, cols)
		row[0] = c.Open
		row[1] = c.High
		row[2] = c.Low
		row[3] = c.Close
		row[4] = c.Volume
		rows[i] = row
	}

	off := baseColumns
	for _, scale := range b.scales {
		if scale == 1 {
			continue
		}
		b.fillScale(window, rows, scale, off)
		off += baseColumns
	}
	return rows, nil
}

// LastRow builds features for the window and returns only the final row, the
// most recent state used for inference.
func (b *FeatureBuilder) LastRow(window []models.Candle) ([]float64, error) {
	rows, err := b.Build(window)
	if err != nil {
		return nil, err
	}
	return rows[len(rows)-1], nil
}

func (b *FeatureBuilder) fillScale(window []models.Candle, rows [][]float64, scale, off int) {
	for start := 0; start < len(window); start += scale {
		end := start + scale
		if end > len(window) {
			end = len(window)
		}
		block := window[start:end]

		open := block[0].Open
		high := block[0].High
		low := block[0].Low
		closePx := block[len(block)-1].Close
		volume := 0.0
		for _, c := range block {
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
			volume += c.Volume
		}

		for i := start; i < end; i++ {
			rows[i][off] = open
			rows[i][off+1] = high
			rows[i][off+2] = low
			rows[i][off+3] = closePx
			rows[i][off+4] = volume
		}
	}
}
