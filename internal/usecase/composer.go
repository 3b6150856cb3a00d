package usecase

import (
	"context"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/util"
)

// PredictionComposer turns normalized model deltas back into absolute OHLCV
// forecasts chained to the last known close. The first horizon anchors on the
// real close at reference time; every later horizon anchors on the predicted
// close of the forecast covering its interval start, so each horizon builds
// on the previous one instead of re-deriving from a stale real close.
type PredictionComposer struct {
	source   domrepo.CandleSource
	horizons []models.Horizon
	l        *applogger.Logger
	now      func() time.Time
}

func NewPredictionComposer(source domrepo.CandleSource, horizons []models.Horizon, l *applogger.Logger) *PredictionComposer {
	return &PredictionComposer{source: source, horizons: horizons, l: l, now: time.Now}
}

// SetNow overrides the clock, for tests.
func (p *PredictionComposer) SetNow(now func() time.Time) { p.now = now }

// Compose emits one forecast per horizon for the hour starting at reference.
// It refuses to compose unless the real candle at exactly reference exists:
// that candle's close is the single source-of-truth anchor, and without it
// every horizon's continuity chain would start from stale data. Such
// deferrals surface as ErrMissingAnchor.
func (p *PredictionComposer) Compose(ctx context.Context, symbol string, reference time.Time, featureRow []float64, sess *ModelSession) ([]models.Forecast, error) {
	referenceMs := reference.UTC().UnixMilli()

	anchor, err := p.source.GetCandleAt(ctx, symbol, referenceMs)
	if err != nil {
		return nil, fmt.Errorf("anchor lookup: %w", err)
	}
	if anchor == nil {
		return nil, fmt.Errorf("no candle at %s for %s: %w",
			reference.UTC().Format(time.RFC3339), symbol, ErrMissingAnchor)
	}
	lastRealClose := anchor.Close

	predictedAt := p.now().UTC()
	forecasts := make([]models.Forecast, 0, len(p.horizons))

	for _, h := range p.horizons {
		art, ok := sess.Artifacts[h.ID]
		if !ok {
			return nil, fmt.Errorf("horizon %d: %w", h.ID, ErrIncompleteModelSet)
		}
		model, ok := sess.Models[h.ID]
		if !ok {
			return nil, fmt.Errorf("horizon %d model: %w", h.ID, ErrIncompleteModelSet)
		}

		scaled, err := art.FeatureScaler.Transform(featureRow)
		if err != nil {
			return nil, fmt.Errorf("horizon %d: %w", h.ID, err)
		}
		out, err := model.Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("horizon %d predict: %w", h.ID, err)
		}
		// Deltas denormalize through the target scaler, never the feature
		// scaler: their ranges differ by orders of magnitude.
		deltas, err := art.TargetScaler.Inverse(out)
		if err != nil {
			return nil, fmt.Errorf("horizon %d denormalize: %w", h.ID, err)
		}
		if len(deltas) != targetColumns {
			return nil, fmt.Errorf("horizon %d: model emitted %d targets, want %d", h.ID, len(deltas), targetColumns)
		}
		closeDelta, highDelta, lowDelta, volume := deltas[0], deltas[1], deltas[2], deltas[3]

		anchorClose := lastRealClose
		if h.Start > 0 {
			prevTimeMs := referenceMs + int64(h.Start-1)*util.MinuteMs
			for _, f := range forecasts {
				if f.CloseTime >= prevTimeMs {
					anchorClose = f.Close
					break
				}
			}
		}

		open := anchorClose
		closePx := anchorClose + closeDelta
		high := anchorClose + highDelta
		low := anchorClose + lowDelta
		if volume < 0 {
			volume = 0
		}
		// Clamp for OHLC coherence against arbitrary model output.
		if high < open {
			high = open
		}
		if high < closePx {
			high = closePx
		}
		if low > open {
			low = open
		}
		if low > closePx {
			low = closePx
		}

		forecasts = append(forecasts, models.Forecast{
			Symbol:      symbol,
			OpenTime:    referenceMs,
			CloseTime:   referenceMs + int64(h.End)*util.MinuteMs - 1,
			Open:        open,
			High:        high,
			Low:         low,
			Close:       closePx,
			Volume:      volume,
			HorizonID:   h.ID,
			PredictedAt: predictedAt,
		})
	}

	if p.l != nil {
		p.l.Info("forecasts composed",
			applogger.String("symbol", symbol),
			applogger.String("reference", reference.UTC().Format(time.RFC3339)),
			applogger.Int("horizons", len(forecasts)),
		)
	}
	return forecasts, nil
}
