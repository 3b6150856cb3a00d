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

// ModelSession holds one symbol's loaded models and scalers for the duration
// of a single scheduler turn. It is discarded after the turn so model tensors
// never outlive the symbol that owns them.
type ModelSession struct {
	Symbol    string
	Date      string
	Artifacts map[int]*models.ModelArtifact
	Models    map[int]domrepo.Model
}

// ModelLifecycle tracks per-symbol, per-horizon model artifacts: their
// creation date, validity for the current calendar day, and obsolescence.
type ModelLifecycle struct {
	store    domrepo.ArtifactStore
	trainer  domrepo.Trainer
	features *FeatureBuilder
	horizons []models.Horizon
	metrics  domrepo.Metrics
	l        *applogger.Logger
	now      func() time.Time
}

func NewModelLifecycle(
	store domrepo.ArtifactStore,
	trainer domrepo.Trainer,
	features *FeatureBuilder,
	horizons []models.Horizon,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *ModelLifecycle {
	return &ModelLifecycle{
		store:    store,
		trainer:  trainer,
		features: features,
		horizons: horizons,
		metrics:  metrics,
		l:        l,
		now:      time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (m *ModelLifecycle) SetNow(now func() time.Time) { m.now = now }

// CheckValidity reports whether symbol has a complete, loadable artifact set
// created on the current calendar date. Missing horizons or unreadable
// payloads make the set invalid; that is logged, never fatal.
func (m *ModelLifecycle) CheckValidity(ctx context.Context, symbol string) (bool, map[int]*models.ModelArtifact, string) {
	today := util.DayString(m.now())

	keys, err := m.store.List(ctx, symbol)
	if err != nil {
		if m.l != nil {
			m.l.Warn("artifact list failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
		return false, nil, ""
	}

	byHorizon := make(map[int]models.ArtifactKey)
	for _, k := range keys {
		if k.Date == today {
			byHorizon[k.Horizon] = k
		}
	}

	arts := make(map[int]*models.ModelArtifact, len(m.horizons))
	for _, h := range m.horizons {
		k, ok := byHorizon[h.ID]
		if !ok {
			if m.l != nil {
				m.l.Info("model set incomplete",
					applogger.String("symbol", symbol),
					applogger.Int("missing_horizon", h.ID),
					applogger.String("date", today),
				)
			}
			return false, nil, ""
		}
		art, err := m.store.Load(ctx, k)
		if err != nil {
			if m.l != nil {
				m.l.Warn("artifact unreadable, set invalid",
					applogger.String("symbol", symbol),
					applogger.Int("horizon", h.ID),
					applogger.Error(err),
				)
			}
			return false, nil, ""
		}
		arts[h.ID] = art
	}
	return true, arts, today
}

// TrainAll trains one model per horizon from the full candle history. A
// single horizon's failure is recorded without aborting the others; the
// operation succeeds only when every horizon produced an artifact.
func (m *ModelLifecycle) TrainAll(ctx context.Context, symbol string, history []models.Candle) (map[int]*models.ModelArtifact, error) {
	today := util.DayString(m.now())
	arts := make(map[int]*models.ModelArtifact, len(m.horizons))

	for _, h := range m.horizons {
		art, err := m.trainHorizon(ctx, symbol, h, history, today)
		if err != nil {
			if m.metrics != nil {
				m.metrics.RecordError("train")
			}
			if m.l != nil {
				m.l.Error("horizon training failed",
					applogger.String("symbol", symbol),
					applogger.Int("horizon", h.ID),
					applogger.Error(err),
				)
			}
			continue
		}
		arts[h.ID] = art
	}

	if len(arts) != len(m.horizons) {
		return nil, fmt.Errorf("trained %d/%d horizons for %s: %w",
			len(arts), len(m.horizons), symbol, ErrIncompleteModelSet)
	}
	return arts, nil
}

func (m *ModelLifecycle) trainHorizon(ctx context.Context, symbol string, h models.Horizon, history []models.Candle, date string) (*models.ModelArtifact, error) {
	start := m.now()

	tw, err := SelectWindow(history, h.WindowMinutes)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	y, err := BuildTargets(tw.Candles, h)
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("no target rows: %w", ErrInsufficientData)
	}
	features, err := m.features.Build(tw.Candles)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	// Targets end early where the future interval runs out; align features.
	x := features[:len(y)]

	featScaler, err := models.FitMinMax(x)
	if err != nil {
		return nil, fmt.Errorf("fit feature scaler: %w", err)
	}
	targScaler, err := models.FitMinMax(y)
	if err != nil {
		return nil, fmt.Errorf("fit target scaler: %w", err)
	}
	xs, err := featScaler.TransformAll(x)
	if err != nil {
		return nil, err
	}
	ys, err := targScaler.TransformAll(y)
	if err != nil {
		return nil, err
	}

	model, loss, err := m.trainer.Train(ctx, xs, ys)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	blob, err := model.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}

	art := &models.ModelArtifact{
		Key:           models.ArtifactKey{Symbol: symbol, Horizon: h.ID, Date: date},
		ModelBlob:     blob,
		FeatureScaler: featScaler,
		TargetScaler:  targScaler,
		Metadata: models.ArtifactMetadata{
			TrainedAt: m.now().UTC(),
			Samples:   len(y),
			Loss:      loss,
		},
	}
	if err := m.store.Save(ctx, art); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}

	elapsed := m.now().Sub(start)
	if m.metrics != nil {
		m.metrics.RecordTraining(symbol, h.ID, elapsed)
	}
	if m.l != nil {
		m.l.Info("horizon trained",
			applogger.String("symbol", symbol),
			applogger.Int("horizon", h.ID),
			applogger.Int("window", h.WindowMinutes),
			applogger.Int("samples", len(y)),
			applogger.Duration("duration_ms", elapsed),
		)
	}
	return art, nil
}

// Session loads today's model set for symbol, training a fresh one when the
// existing set is missing, partial, stale, or undecodable. Obsolete artifacts
// are cleaned before training so stale days never accumulate.
func (m *ModelLifecycle) Session(ctx context.Context, symbol string, history []models.Candle) (*ModelSession, error) {
	valid, arts, date := m.CheckValidity(ctx, symbol)
	if valid {
		loaded, err := m.loadModels(arts)
		if err == nil {
			return &ModelSession{Symbol: symbol, Date: date, Artifacts: arts, Models: loaded}, nil
		}
		// An undecodable payload makes the whole set invalid. Fall through
		// to retrain; returning here would wedge the symbol until midnight
		// since nothing else ever exercises the blob.
		if m.l != nil {
			m.l.Warn("stored model unusable, retraining set",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	if err := m.CleanupObsolete(ctx, symbol); err != nil && m.l != nil {
		m.l.Warn("artifact cleanup failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	arts, err := m.TrainAll(ctx, symbol, history)
	if err != nil {
		return nil, err
	}
	loaded, err := m.loadModels(arts)
	if err != nil {
		return nil, fmt.Errorf("freshly trained set: %w", err)
	}
	return &ModelSession{
		Symbol:    symbol,
		Date:      util.DayString(m.now()),
		Artifacts: arts,
		Models:    loaded,
	}, nil
}

func (m *ModelLifecycle) loadModels(arts map[int]*models.ModelArtifact) (map[int]domrepo.Model, error) {
	loaded := make(map[int]domrepo.Model, len(arts))
	for id, art := range arts {
		model, err := m.trainer.Load(art.ModelBlob)
		if err != nil {
			return nil, fmt.Errorf("load model horizon %d: %w", id, err)
		}
		loaded[id] = model
	}
	return loaded, nil
}

// CleanupObsolete deletes artifact sets whose date is not today.
func (m *ModelLifecycle) CleanupObsolete(ctx context.Context, symbol string) error {
	today := util.DayString(m.now())
	keys, err := m.store.List(ctx, symbol)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		if k.Date == today || seen[k.Date] {
			continue
		}
		seen[k.Date] = true
		if err := m.store.DeleteDay(ctx, symbol, k.Date); err != nil {
			return fmt.Errorf("delete artifacts %s/%s: %w", symbol, k.Date, err)
		}
		if m.l != nil {
			m.l.Info("obsolete artifacts removed",
				applogger.String("symbol", symbol),
				applogger.String("date", k.Date),
			)
		}
	}
	return nil
}
