package repository

import (
	"context"
	"time"

	"FinCast/internal/domain/models"
)

// CandleSource provides read-only access to minute candles. Candle data is
// owned by the upstream ingestion subsystem; this service never writes it.
type CandleSource interface {
	// GetHistory returns all candles for symbol ascending by open time.
	// A non-zero end bounds the result to open_time < end.
	GetHistory(ctx context.Context, symbol string, end time.Time) ([]models.Candle, error)
	// GetCandleAt returns the candle with exactly the given open time, or nil.
	GetCandleAt(ctx context.Context, symbol string, openTime int64) (*models.Candle, error)
	// Symbols enumerates symbols with candle data.
	Symbols(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
}

// ForecastStore owns forecast documents. UpsertHour has delete-then-insert
// semantics per open_time so re-runs never accumulate duplicates.
type ForecastStore interface {
	UpsertHour(ctx context.Context, symbol string, openTime int64, forecasts []models.Forecast) error
	CountForHour(ctx context.Context, symbol string, openTime int64) (int, error)
	// LatestOpenTime returns the open_time of the forecast with the greatest
	// close_time in [dayStart, dayEnd), or ok=false when none exists.
	LatestOpenTime(ctx context.Context, symbol string, dayStart, dayEnd int64) (int64, bool, error)
	ForHour(ctx context.Context, symbol string, openTime int64) ([]models.Forecast, error)
	Latest(ctx context.Context, symbol string) ([]models.Forecast, error)
	CleanupBefore(ctx context.Context, symbol string, cutoff int64) (int64, error)
}

// ArtifactStore persists per-(symbol, horizon, day) model artifacts.
type ArtifactStore interface {
	Save(ctx context.Context, art *models.ModelArtifact) error
	Load(ctx context.Context, key models.ArtifactKey) (*models.ModelArtifact, error)
	List(ctx context.Context, symbol string) ([]models.ArtifactKey, error)
	DeleteDay(ctx context.Context, symbol, date string) error
}

// Model performs inference on one normalized feature row, returning
// normalized delta targets.
type Model interface {
	Predict(features []float64) ([]float64, error)
	Encode() ([]byte, error)
}

// Trainer fits and revives models. The training/inference library is an
// external collaborator behind this interface; its architecture is a tunable
// detail, not part of the scheduling core.
type Trainer interface {
	Train(ctx context.Context, x, y [][]float64) (Model, float64, error)
	Load(blob []byte) (Model, error)
}

// Publisher pushes completed forecast sets to downstream consumers.
type Publisher interface {
	PublishForecasts(ctx context.Context, symbol string, forecasts []models.Forecast) error
	Close() error
}

// Metrics records operational counters for the scheduler.
type Metrics interface {
	RecordCycle()
	RecordForecasts(symbol string, n int)
	RecordTraining(symbol string, horizon int, d time.Duration)
	RecordError(kind string)
}
