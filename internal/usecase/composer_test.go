package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/pkg/util"
)

// buildSession constructs a session whose target scalers collapse to a
// constant, so every horizon's denormalized deltas are exactly the given
// values regardless of model output.
func buildSession(horizons []models.Horizon, deltas map[int][4]float64, width int) *ModelSession {
	featMin := make([]float64, width)
	featMax := make([]float64, width)
	for i := range featMax {
		featMax[i] = 1000
	}
	sess := &ModelSession{
		Symbol:    "btcusdt",
		Date:      "20250102",
		Artifacts: map[int]*models.ModelArtifact{},
		Models:    map[int]domrepo.Model{},
	}
	for _, h := range horizons {
		d := deltas[h.ID]
		sess.Artifacts[h.ID] = &models.ModelArtifact{
			Key:           models.ArtifactKey{Symbol: "btcusdt", Horizon: h.ID, Date: "20250102"},
			FeatureScaler: &models.MinMaxScaler{Min: featMin, Max: featMax},
			TargetScaler: &models.MinMaxScaler{
				Min: []float64{d[0], d[1], d[2], d[3]},
				Max: []float64{d[0], d[1], d[2], d[3]},
			},
		}
		sess.Models[h.ID] = stubModel{out: []float64{0, 0, 0, 0}}
	}
	return sess
}

func TestComposeRequiresAnchor(t *testing.T) {
	horizons := testPartition()
	reference := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	source := &memCandleSource{} // no candles at all
	comp := NewPredictionComposer(source, horizons, nil)

	sess := buildSession(horizons, map[int][4]float64{}, 5)
	_, err := comp.Compose(context.Background(), "btcusdt", reference, make([]float64, 5), sess)
	if !errors.Is(err, ErrMissingAnchor) {
		t.Fatalf("expected ErrMissingAnchor, got %v", err)
	}
}

func TestComposeChainsHorizons(t *testing.T) {
	horizons := testPartition()
	reference := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	refMs := reference.UnixMilli()

	source := &memCandleSource{candles: []models.Candle{{
		Symbol: "btcusdt", OpenTime: refMs, CloseTime: refMs + 59_999,
		Open: 99.5, High: 100.5, Low: 99, Close: 100, Volume: 500,
	}}}
	comp := NewPredictionComposer(source, horizons, nil)

	deltas := map[int][4]float64{
		1:  {2, 3, -1, 500},
		30: {1, 2, -2, 900},
		60: {-1, 1, -3, 1200},
	}
	sess := buildSession(horizons, deltas, 5)

	forecasts, err := comp.Compose(context.Background(), "btcusdt", reference, make([]float64, 5), sess)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(forecasts) != len(horizons) {
		t.Fatalf("forecasts = %d, want %d", len(forecasts), len(horizons))
	}

	f1, f30, f60 := forecasts[0], forecasts[1], forecasts[2]

	// First horizon anchors on the real close.
	if f1.Open != 100 || f1.Close != 102 {
		t.Fatalf("h1 open/close = %v/%v, want 100/102", f1.Open, f1.Close)
	}
	// Each later horizon opens at the predicted close covering its start.
	if f30.Open != f1.Close {
		t.Fatalf("h30 open = %v, want chained %v", f30.Open, f1.Close)
	}
	if f30.Close != f1.Close+1 {
		t.Fatalf("h30 close = %v", f30.Close)
	}
	if f60.Open != f30.Close {
		t.Fatalf("h60 open = %v, want chained %v", f60.Open, f30.Close)
	}
	if f60.Close != f30.Close-1 {
		t.Fatalf("h60 close = %v", f60.Close)
	}

	// Timing: all share the reference open, close at interval end minus 1ms.
	for i, h := range horizons {
		f := forecasts[i]
		if f.OpenTime != refMs {
			t.Fatalf("h%d open_time = %d, want %d", h.ID, f.OpenTime, refMs)
		}
		wantClose := refMs + int64(h.End)*util.MinuteMs - 1
		if f.CloseTime != wantClose {
			t.Fatalf("h%d close_time = %d, want %d", h.ID, f.CloseTime, wantClose)
		}
	}
}

func TestComposeClampsOHLC(t *testing.T) {
	horizons := testPartition()
	reference := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	refMs := reference.UnixMilli()

	source := &memCandleSource{candles: []models.Candle{{
		Symbol: "btcusdt", OpenTime: refMs, CloseTime: refMs + 59_999,
		Open: 99.5, High: 100.5, Low: 99, Close: 100, Volume: 500,
	}}}
	comp := NewPredictionComposer(source, horizons, nil)

	// Adversarial deltas: high below close, low above open, negative volume.
	deltas := map[int][4]float64{
		1:  {5, -10, 20, -100},
		30: {-5, -10, 20, -100},
		60: {0, -1, 1, -1},
	}
	sess := buildSession(horizons, deltas, 5)

	forecasts, err := comp.Compose(context.Background(), "btcusdt", reference, make([]float64, 5), sess)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	for _, f := range forecasts {
		maxOC, minOC := f.Open, f.Open
		if f.Close > maxOC {
			maxOC = f.Close
		}
		if f.Close < minOC {
			minOC = f.Close
		}
		if f.High < maxOC {
			t.Fatalf("h%d high %v below max(open,close) %v", f.HorizonID, f.High, maxOC)
		}
		if f.Low > minOC {
			t.Fatalf("h%d low %v above min(open,close) %v", f.HorizonID, f.Low, minOC)
		}
		if f.Volume < 0 {
			t.Fatalf("h%d negative volume %v", f.HorizonID, f.Volume)
		}
	}
}

func TestComposeIncompleteSession(t *testing.T) {
	horizons := testPartition()
	reference := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	refMs := reference.UnixMilli()

	source := &memCandleSource{candles: []models.Candle{{
		Symbol: "btcusdt", OpenTime: refMs, CloseTime: refMs + 59_999, Close: 100,
	}}}
	comp := NewPredictionComposer(source, horizons, nil)

	sess := buildSession(horizons, map[int][4]float64{}, 5)
	delete(sess.Models, 30)

	_, err := comp.Compose(context.Background(), "btcusdt", reference, make([]float64, 5), sess)
	if !errors.Is(err, ErrIncompleteModelSet) {
		t.Fatalf("expected ErrIncompleteModelSet, got %v", err)
	}
}
