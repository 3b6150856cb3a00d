package usecase

import (
	"context"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	pkgcache "FinCast/pkg/cache"
	"FinCast/pkg/util"
)

// ForecastQuery provides read access to persisted forecasts for the HTTP
// layer. Results for the current hour change only when the scheduler
// persists a new set, so short cache TTLs are safe.
type ForecastQuery struct {
	forecasts domrepo.ForecastStore
	source    domrepo.CandleSource
	cache     pkgcache.Service
	cacheTTL  time.Duration
}

func NewForecastQuery(forecasts domrepo.ForecastStore, source domrepo.CandleSource, cache pkgcache.Service) *ForecastQuery {
	return &ForecastQuery{
		forecasts: forecasts,
		source:    source,
		cache:     cache,
		cacheTTL:  15 * time.Second,
	}
}

type ForecastSetResult struct {
	Symbol    string            `json:"symbol"`
	OpenTime  int64             `json:"open_time"`
	Reference string            `json:"reference"`
	Count     int               `json:"count"`
	Forecasts []models.Forecast `json:"forecasts"`
}

// Latest returns the most recently persisted forecast set for a symbol.
func (q *ForecastQuery) Latest(ctx context.Context, symbol string) (*ForecastSetResult, error) {
	key := pkgcache.GenerateKeyWithParams("forecast", "latest", symbol)
	if q.cache != nil {
		var cached ForecastSetResult
		if err := q.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	forecasts, err := q.forecasts.Latest(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest forecasts: %w", err)
	}
	if len(forecasts) == 0 {
		return nil, fmt.Errorf("no forecasts for %s", symbol)
	}

	res := buildResult(symbol, forecasts)
	if q.cache != nil {
		_ = q.cache.Set(ctx, key, res, q.cacheTTL)
	}
	return res, nil
}

// ForHour returns the forecast set anchored at the given hour.
func (q *ForecastQuery) ForHour(ctx context.Context, symbol string, reference time.Time) (*ForecastSetResult, error) {
	openTime := util.TruncateHour(reference).UnixMilli()
	key := pkgcache.GenerateKeyWithParams("forecast", "hour", symbol, openTime)
	if q.cache != nil {
		var cached ForecastSetResult
		if err := q.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	forecasts, err := q.forecasts.ForHour(ctx, symbol, openTime)
	if err != nil {
		return nil, fmt.Errorf("forecasts for hour: %w", err)
	}
	if len(forecasts) == 0 {
		return nil, fmt.Errorf("no forecasts for %s at %s", symbol, reference.UTC().Format(time.RFC3339))
	}

	res := buildResult(symbol, forecasts)
	if q.cache != nil {
		_ = q.cache.Set(ctx, key, res, q.cacheTTL)
	}
	return res, nil
}

// Symbols lists symbols available for forecasting.
func (q *ForecastQuery) Symbols(ctx context.Context) ([]string, error) {
	return q.source.Symbols(ctx)
}

func buildResult(symbol string, forecasts []models.Forecast) *ForecastSetResult {
	openTime := forecasts[0].OpenTime
	return &ForecastSetResult{
		Symbol:    symbol,
		OpenTime:  openTime,
		Reference: time.UnixMilli(openTime).UTC().Format(time.RFC3339),
		Count:     len(forecasts),
		Forecasts: forecasts,
	}
}
