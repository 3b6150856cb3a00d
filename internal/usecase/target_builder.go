package usecase

import (
	"fmt"

	"FinCast/internal/domain/models"
)

// targetColumns is the supervised target width: close/high/low deltas plus
// raw future volume.
const targetColumns = 4

// BuildTargets derives delta-based supervised targets for one horizon. For
// each cut point i the minutes at indices [i+Start, i+End) are aggregated and
// expressed as deltas against window[i].Close. Deltas stay in a bounded,
// near-stationary range while absolute prices drift across the multi-day
// window, so the model represents them more compactly; the target scaler must
// be fit separately from the feature scaler for the same reason.
//
// Cut points whose future interval would run past the window are dropped, so
// the row count is len(window) - End + 1, bounded below by zero.
func BuildTargets(window []models.Candle, h models.Horizon) ([][]float64, error) {
	if h.End <= h.Start {
		return nil, fmt.Errorf("build targets: horizon %d interval [%d,%d) is empty", h.ID, h.Start, h.End)
	}
	n := len(window) - h.End + 1
	if n < 0 {
		n = 0
	}
	rows := make([][]float64, 0, n)
	for i := 0; i+h.End <= len(window); i++ {
		prevClose := window[i].Close
		future := window[i+h.Start : i+h.End]

		high := future[0].High
		low := future[0].Low
		closePx := future[len(future)-1].Close
		volume := 0.0
		for _, c := range future {
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
			volume += c.Volume
		}

		rows = append(rows, []float64{
			closePx - prevClose,
			high - prevClose,
			low - prevClose,
			volume,
		})
	}
	return rows, nil
}
