package usecase

import (
	"fmt"
	"sort"
	"time"

	"FinCast/internal/domain/models"
)

// SelectWindow carves an exact-length training window out of history.
//
// The maximum open_time in history is truncated to the start of its hour,
// giving the exclusive reference time; the window is the windowSize minutes
// of candles in [reference-windowSize, reference). Anchoring to an hour
// boundary with a fixed count gives every horizon a reproducible training set
// no matter when during the day training runs.
func SelectWindow(history []models.Candle, windowSize int) (*models.TrainingWindow, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("select window: window size %d", windowSize)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("select window: empty history: %w", ErrInsufficientData)
	}

	maxOpen := history[0].OpenTime
	for _, c := range history[1:] {
		if c.OpenTime > maxOpen {
			maxOpen = c.OpenTime
		}
	}

	reference := time.UnixMilli(maxOpen).UTC().Truncate(time.Hour)
	lower := reference.Add(-time.Duration(windowSize) * time.Minute)
	lowerMs := lower.UnixMilli()
	referenceMs := reference.UnixMilli()

	window := make([]models.Candle, 0, windowSize)
	for _, c := range history {
		if c.OpenTime >= lowerMs && c.OpenTime < referenceMs {
			window = append(window, c)
		}
	}
	sort.Slice(window, func(i, j int) bool { return window[i].OpenTime < window[j].OpenTime })

	if len(window) < windowSize {
		return nil, fmt.Errorf("select window: need %d candles in [%s, %s), have %d: %w",
			windowSize, lower.Format(time.RFC3339), reference.Format(time.RFC3339), len(window), ErrInsufficientData)
	}
	// More data than expected can accumulate upstream; keep the most recent
	// windowSize records so the window length stays exact.
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}

	return &models.TrainingWindow{
		LowerBound:    lower,
		ReferenceTime: reference,
		Candles:       window,
	}, nil
}
