package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/util"
)

// SchedulerConfig carries the scheduler's tunables, read once at startup.
type SchedulerConfig struct {
	Symbols          []string
	PollInterval     time.Duration
	CleanupEvery     int           // run housekeeping every Nth cycle
	ForecastRetain   time.Duration // forecasts older than this are dropped during housekeeping; 0 keeps all
	completeSetCount int
}

// Scheduler drives hour-by-hour forecast catch-up for every symbol. One
// logical worker owns all writes: symbols run sequentially within a cycle to
// bound peak model memory, and concurrent schedulers for the same symbol are
// unsupported.
//
// Per symbol and cycle the loop determines the next unpredicted hour of the
// current day, waits for the real anchor candle, composes and persists the
// full horizon set, and advances until blocked or caught up to wall clock
// plus one hour. The poll loop itself is the only retry mechanism.
type Scheduler struct {
	cfg       SchedulerConfig
	source    domrepo.CandleSource
	forecasts domrepo.ForecastStore
	lifecycle *ModelLifecycle
	composer  *PredictionComposer
	publisher domrepo.Publisher
	features  *FeatureBuilder
	horizons  []models.Horizon
	maxWindow int
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
	onPersist func(symbol string, forecasts []models.Forecast)
	cycle     int
}

func NewScheduler(
	cfg SchedulerConfig,
	source domrepo.CandleSource,
	forecasts domrepo.ForecastStore,
	lifecycle *ModelLifecycle,
	composer *PredictionComposer,
	publisher domrepo.Publisher,
	features *FeatureBuilder,
	horizons []models.Horizon,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Scheduler {
	cfg.completeSetCount = len(horizons)
	if cfg.CleanupEvery <= 0 {
		cfg.CleanupEvery = 10
	}
	return &Scheduler{
		cfg:       cfg,
		source:    source,
		forecasts: forecasts,
		lifecycle: lifecycle,
		composer:  composer,
		publisher: publisher,
		features:  features,
		horizons:  horizons,
		maxWindow: models.MaxWindowMinutes(horizons),
		metrics:   metrics,
		l:         l,
		now:       time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Scheduler) SetNow(now func() time.Time) {
	s.now = now
	s.lifecycle.SetNow(now)
	s.composer.SetNow(now)
}

// OnPersist registers a hook invoked after each successfully persisted hour,
// used to fan forecasts out to websocket subscribers.
func (s *Scheduler) OnPersist(fn func(symbol string, forecasts []models.Forecast)) { s.onPersist = fn }

// Run polls until ctx is cancelled. The in-flight symbol's current step is
// allowed to finish before exit so no partial forecast set is ever persisted.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		s.RunCycle(ctx)
		select {
		case <-ctx.Done():
			if s.l != nil {
				s.l.Info("scheduler stopped", applogger.Int("cycles", s.cycle))
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle processes every symbol once. A symbol's failure is caught at its
// own boundary so it cannot halt the others' catch-up progress.
func (s *Scheduler) RunCycle(ctx context.Context) {
	s.cycle++
	if s.metrics != nil {
		s.metrics.RecordCycle()
	}

	symbols := s.cfg.Symbols
	if len(symbols) == 0 {
		discovered, err := s.source.Symbols(ctx)
		if err != nil {
			if s.l != nil {
				s.l.Error("symbol discovery failed", applogger.Error(err))
			}
			return
		}
		symbols = discovered
	}

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if err := s.ProcessSymbol(ctx, symbol); err != nil {
			if s.metrics != nil {
				s.metrics.RecordError("symbol")
			}
			if s.l != nil {
				s.l.Error("symbol turn failed", applogger.String("symbol", symbol), applogger.Error(err))
			}
		}
	}

	if s.cycle%s.cfg.CleanupEvery == 0 {
		s.housekeep(ctx, symbols)
	}
}

// ProcessSymbol runs one symbol's catch-up turn: predict consecutive hours of
// the current day from the first incomplete hour up to wall clock plus one,
// stopping when real data is not yet available.
func (s *Scheduler) ProcessSymbol(ctx context.Context, symbol string) error {
	now := s.now().UTC()
	dayStart, dayEnd := util.DayBounds(now)
	currentHour := now.Hour()

	startHour, err := s.nextHour(ctx, symbol, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("determine next hour: %w", err)
	}

	endHour := currentHour + 1
	if endHour > 23 {
		endHour = 23
	}
	if startHour > endHour {
		return nil // caught up
	}

	// One history fetch and one session serve the whole turn; the session is
	// discarded when the turn ends to bound memory.
	var history []models.Candle
	var sess *ModelSession

	for hour := startHour; hour <= endHour; hour++ {
		if ctx.Err() != nil {
			return nil
		}
		// Hour 0 needs the previous day's data, which is out of scope; skip
		// without counting it as a failure.
		if hour == 0 {
			continue
		}

		reference := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
		referenceMs := reference.UnixMilli()

		count, err := s.forecasts.CountForHour(ctx, symbol, referenceMs)
		if err != nil {
			return fmt.Errorf("count forecasts hour %d: %w", hour, err)
		}
		if count >= s.cfg.completeSetCount {
			continue // already predicted, guarded no-op
		}

		anchor, err := s.source.GetCandleAt(ctx, symbol, referenceMs)
		if err != nil {
			return fmt.Errorf("anchor check hour %d: %w", hour, err)
		}
		if anchor == nil {
			// Blocked on real data; end this symbol's turn for the cycle.
			if s.l != nil {
				s.l.Debug("awaiting real data",
					applogger.String("symbol", symbol),
					applogger.Int("hour", hour),
				)
			}
			return nil
		}

		if history == nil {
			history, err = s.source.GetHistory(ctx, symbol, time.Time{})
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
		}
		if sess == nil {
			sess, err = s.lifecycle.Session(ctx, symbol, history)
			if err != nil {
				return fmt.Errorf("model session: %w", err)
			}
		}

		if err := s.predictHour(ctx, symbol, reference, history, sess); err != nil {
			if errors.Is(err, ErrMissingAnchor) {
				return nil
			}
			return fmt.Errorf("predict hour %d: %w", hour, err)
		}
	}
	return nil
}

// nextHour finds the first hour of the day without a complete forecast set.
func (s *Scheduler) nextHour(ctx context.Context, symbol string, dayStart, dayEnd int64) (int, error) {
	latestOpen, ok, err := s.forecasts.LatestOpenTime(ctx, symbol, dayStart, dayEnd)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	hour := util.HourOfDay(latestOpen)
	count, err := s.forecasts.CountForHour(ctx, symbol, latestOpen)
	if err != nil {
		return 0, err
	}
	if count >= s.cfg.completeSetCount {
		return hour + 1, nil
	}
	// Partial set: redo this hour; upsert replaces it wholesale.
	return hour, nil
}

func (s *Scheduler) predictHour(ctx context.Context, symbol string, reference time.Time, history []models.Candle, sess *ModelSession) error {
	referenceMs := reference.UnixMilli()

	window := make([]models.Candle, 0, s.maxWindow)
	for _, c := range history {
		if c.OpenTime < referenceMs {
			window = append(window, c)
		}
	}
	if len(window) < s.maxWindow {
		return fmt.Errorf("need %d candles before %s, have %d: %w",
			s.maxWindow, reference.Format(time.RFC3339), len(window), ErrInsufficientData)
	}
	window = window[len(window)-s.maxWindow:]

	featureRow, err := s.features.LastRow(window)
	if err != nil {
		return err
	}

	forecasts, err := s.composer.Compose(ctx, symbol, reference, featureRow, sess)
	if err != nil {
		return err
	}

	if err := s.forecasts.UpsertHour(ctx, symbol, referenceMs, forecasts); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("persist")
		}
		return fmt.Errorf("persist: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordForecasts(symbol, len(forecasts))
	}
	if s.l != nil {
		s.l.Info("hour predicted",
			applogger.String("symbol", symbol),
			applogger.String("reference", reference.Format(time.RFC3339)),
			applogger.Int("forecasts", len(forecasts)),
		)
	}

	// Downstream fan-out is best-effort: the stored set is the source of
	// truth and a publish failure must not roll the hour back.
	if s.publisher != nil {
		if err := s.publisher.PublishForecasts(ctx, symbol, forecasts); err != nil {
			if s.metrics != nil {
				s.metrics.RecordError("publish")
			}
			if s.l != nil {
				s.l.Warn("forecast publish failed", applogger.String("symbol", symbol), applogger.Error(err))
			}
		}
	}
	if s.onPersist != nil {
		s.onPersist(symbol, forecasts)
	}
	return nil
}

// housekeep removes obsolete model sets and aged forecasts. It runs between
// symbols on every Nth cycle and must not stall catch-up progress.
func (s *Scheduler) housekeep(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		if err := s.lifecycle.CleanupObsolete(ctx, symbol); err != nil {
			if s.l != nil {
				s.l.Warn("model cleanup failed", applogger.String("symbol", symbol), applogger.Error(err))
			}
		}
		if s.cfg.ForecastRetain > 0 {
			cutoff := s.now().UTC().Add(-s.cfg.ForecastRetain).UnixMilli()
			deleted, err := s.forecasts.CleanupBefore(ctx, symbol, cutoff)
			if err != nil {
				if s.l != nil {
					s.l.Warn("forecast cleanup failed", applogger.String("symbol", symbol), applogger.Error(err))
				}
				continue
			}
			if deleted > 0 && s.l != nil {
				s.l.Info("aged forecasts removed",
					applogger.String("symbol", symbol),
					applogger.Int64("deleted", deleted),
				)
			}
		}
	}
}
