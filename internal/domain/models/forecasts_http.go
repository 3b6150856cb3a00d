package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

type LatestForecastRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type HourForecastRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	// At is the reference hour, RFC3339 or unix milliseconds; minutes below
	// the hour are truncated.
	At string `query:"at" json:"at" validate:"required"`
}
