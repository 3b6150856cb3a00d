package usecase

import "errors"

var (
	// ErrInsufficientData means a window or feature matrix could not reach its
	// required length. The current horizon or symbol turn aborts; the next
	// poll cycle retries with more data likely available.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrMissingAnchor means the real candle at reference_time is absent.
	// Composing defers to the next cycle; this is a wait state, not a fault.
	ErrMissingAnchor = errors.New("real anchor candle not available")

	// ErrIncompleteModelSet means fewer than the full set of horizon models
	// is valid for today; the whole set must be retrained.
	ErrIncompleteModelSet = errors.New("incomplete model set")
)
