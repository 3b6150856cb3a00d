package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
)

// genCandles produces n consecutive minute candles starting at start, with a
// slow sinusoidal drift so scalers never see constant columns.
func genCandles(symbol string, start time.Time, n int) []models.Candle {
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		openTime := start.Add(time.Duration(i) * time.Minute).UnixMilli()
		base := 100.0 + 10.0*math.Sin(float64(i)/180.0) + 0.001*float64(i)
		out = append(out, models.Candle{
			Symbol:    symbol,
			OpenTime:  openTime,
			CloseTime: openTime + 59_999,
			Open:      base,
			High:      base + 0.5,
			Low:       base - 0.5,
			Close:     base + 0.1,
			Volume:    1000 + float64(i%60),
		})
	}
	return out
}

// testPartition is a small but complete hour partition used where the full
// 12-horizon set would only slow the test down.
func testPartition() []models.Horizon {
	return []models.Horizon{
		{ID: 1, Start: 0, End: 1, WindowMinutes: 120},
		{ID: 30, Start: 1, End: 30, WindowMinutes: 180},
		{ID: 60, Start: 30, End: 60, WindowMinutes: 240},
	}
}

type memCandleSource struct {
	candles []models.Candle
	symbols []string
}

func (m *memCandleSource) GetHistory(_ context.Context, symbol string, end time.Time) ([]models.Candle, error) {
	out := make([]models.Candle, 0, len(m.candles))
	for _, c := range m.candles {
		if c.Symbol != symbol {
			continue
		}
		if !end.IsZero() && c.OpenTime >= end.UnixMilli() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memCandleSource) GetCandleAt(_ context.Context, symbol string, openTime int64) (*models.Candle, error) {
	for _, c := range m.candles {
		if c.Symbol == symbol && c.OpenTime == openTime {
			cc := c
			return &cc, nil
		}
	}
	return nil, nil
}

func (m *memCandleSource) Symbols(context.Context) ([]string, error) { return m.symbols, nil }
func (m *memCandleSource) Health(context.Context) error              { return nil }

type memForecastStore struct {
	sets map[string]map[int64][]models.Forecast
}

func newMemForecastStore() *memForecastStore {
	return &memForecastStore{sets: make(map[string]map[int64][]models.Forecast)}
}

func (m *memForecastStore) UpsertHour(_ context.Context, symbol string, openTime int64, forecasts []models.Forecast) error {
	if m.sets[symbol] == nil {
		m.sets[symbol] = make(map[int64][]models.Forecast)
	}
	m.sets[symbol][openTime] = append([]models.Forecast(nil), forecasts...)
	return nil
}

func (m *memForecastStore) CountForHour(_ context.Context, symbol string, openTime int64) (int, error) {
	return len(m.sets[symbol][openTime]), nil
}

func (m *memForecastStore) LatestOpenTime(_ context.Context, symbol string, dayStart, dayEnd int64) (int64, bool, error) {
	var best int64
	var bestClose int64 = -1
	for openTime, fs := range m.sets[symbol] {
		if openTime < dayStart || openTime >= dayEnd {
			continue
		}
		for _, f := range fs {
			if f.CloseTime > bestClose {
				bestClose = f.CloseTime
				best = openTime
			}
		}
	}
	return best, bestClose >= 0, nil
}

func (m *memForecastStore) ForHour(_ context.Context, symbol string, openTime int64) ([]models.Forecast, error) {
	return append([]models.Forecast(nil), m.sets[symbol][openTime]...), nil
}

func (m *memForecastStore) Latest(_ context.Context, symbol string) ([]models.Forecast, error) {
	var best int64 = -1
	for openTime := range m.sets[symbol] {
		if openTime > best {
			best = openTime
		}
	}
	if best < 0 {
		return nil, nil
	}
	return m.ForHour(context.Background(), symbol, best)
}

func (m *memForecastStore) CleanupBefore(_ context.Context, symbol string, cutoff int64) (int64, error) {
	var n int64
	for openTime, fs := range m.sets[symbol] {
		if openTime < cutoff {
			n += int64(len(fs))
			delete(m.sets[symbol], openTime)
		}
	}
	return n, nil
}

type memArtifactStore struct {
	arts map[string]*models.ModelArtifact
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{arts: make(map[string]*models.ModelArtifact)}
}

func (m *memArtifactStore) Save(_ context.Context, art *models.ModelArtifact) error {
	m.arts[art.Key.String()] = art
	return nil
}

func (m *memArtifactStore) Load(_ context.Context, key models.ArtifactKey) (*models.ModelArtifact, error) {
	art, ok := m.arts[key.String()]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", key.String())
	}
	return art, nil
}

func (m *memArtifactStore) List(_ context.Context, symbol string) ([]models.ArtifactKey, error) {
	var keys []models.ArtifactKey
	for _, art := range m.arts {
		if art.Key.Symbol == symbol {
			keys = append(keys, art.Key)
		}
	}
	return keys, nil
}

func (m *memArtifactStore) DeleteDay(_ context.Context, symbol, date string) error {
	for name, art := range m.arts {
		if art.Key.Symbol == symbol && art.Key.Date == date {
			delete(m.arts, name)
		}
	}
	return nil
}

// stubModel predicts a fixed normalized vector regardless of input.
type stubModel struct{ out []float64 }

func (m stubModel) Predict([]float64) ([]float64, error) { return m.out, nil }
func (m stubModel) Encode() ([]byte, error)              { return json.Marshal(m.out) }

type stubTrainer struct{}

func (stubTrainer) Train(_ context.Context, _, y [][]float64) (domrepo.Model, float64, error) {
	return stubModel{out: []float64{0.5, 0.8, 0.2, 0.5}}, 0.01, nil
}

func (stubTrainer) Load(blob []byte) (domrepo.Model, error) {
	var out []float64
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, err
	}
	return stubModel{out: out}, nil
}

// countingTrainer counts Train calls on top of stubTrainer's behavior.
type countingTrainer struct {
	stubTrainer
	trains int
}

func (c *countingTrainer) Train(ctx context.Context, x, y [][]float64) (domrepo.Model, float64, error) {
	c.trains++
	return c.stubTrainer.Train(ctx, x, y)
}

type countingMetrics struct {
	cycles    int
	forecasts int
	trainings int
	errors    map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordCycle()                                  { m.cycles++ }
func (m *countingMetrics) RecordForecasts(_ string, n int)               { m.forecasts += n }
func (m *countingMetrics) RecordTraining(_ string, _ int, _ time.Duration) { m.trainings++ }
func (m *countingMetrics) RecordError(kind string)                       { m.errors[kind]++ }
