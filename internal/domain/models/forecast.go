package models

import "time"

// Forecast is one predicted aggregate candle for a horizon. All forecasts of
// a given hour share the same OpenTime (the round hour being forecast); only
// CloseTime varies with the horizon's interval end.
type Forecast struct {
	Symbol      string    `json:"symbol"`
	OpenTime    int64     `json:"open_time"`
	CloseTime   int64     `json:"close_time"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	HorizonID   int       `json:"horizon_id"`
	PredictedAt time.Time `json:"predicted_at"`
}
