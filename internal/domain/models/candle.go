package models

import "time"

// Candle is one minute's aggregated OHLCV for a symbol. Immutable once the
// minute closes; keyed uniquely by (Symbol, OpenTime).
type Candle struct {
	Symbol    string  `json:"symbol"`
	OpenTime  int64   `json:"open_time"` // epoch ms, minute-aligned
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// OpenAt returns the candle's open time as UTC time.
func (c Candle) OpenAt() time.Time { return time.UnixMilli(c.OpenTime).UTC() }

// TrainingWindow is an exact-length contiguous slice of minute candles ending
// at an hour boundary. ReferenceTime is the exclusive upper bound and always
// a round hour; LowerBound = ReferenceTime minus the window length.
type TrainingWindow struct {
	LowerBound    time.Time
	ReferenceTime time.Time
	Candles       []Candle
}
