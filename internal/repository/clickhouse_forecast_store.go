package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	pkgch "FinCast/pkg/clickhouse"
	applogger "FinCast/pkg/logger"
)

const forecastTable = "fincast.forecasts"

// CHForecastStore implements ForecastStore backed by ClickHouse. UpsertHour
// issues a lightweight DELETE for the open_time before inserting, so
// replaying an hour replaces its set instead of stacking duplicates.
type CHForecastStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHForecastStore(ch *pkgch.Client) *CHForecastStore {
	return &CHForecastStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHForecastStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHForecastStore) UpsertHour(ctx context.Context, symbol string, openTime int64, forecasts []models.Forecast) error {
	start := time.Now()
	const del = `DELETE FROM ` + forecastTable + ` WHERE symbol = ? AND open_time = ?`
	if _, err := s.db.ExecContext(ctx, del, symbol, openTime); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert delete error",
				applogger.String("symbol", symbol),
				applogger.Int64("open_time", openTime),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("delete hour: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	const ins = `
        INSERT INTO ` + forecastTable + `
        (symbol, open_time, close_time, open, high, low, close, volume, horizon_id, predicted_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	stmt, err := tx.PrepareContext(ctx, ins)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range forecasts {
		if _, err := stmt.ExecContext(ctx,
			f.Symbol, f.OpenTime, f.CloseTime,
			f.Open, f.High, f.Low, f.Close, f.Volume,
			f.HorizonID, f.PredictedAt,
		); err != nil {
			tx.Rollback()
			if s.l != nil {
				s.l.Error("clickhouse upsert insert error",
					applogger.String("symbol", symbol),
					applogger.Int64("open_time", openTime),
					applogger.Int("horizon", f.HorizonID),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert forecast h%d: %w", f.HorizonID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse upsert_hour ok",
			applogger.String("symbol", symbol),
			applogger.Int64("open_time", openTime),
			applogger.Int("rows", len(forecasts)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHForecastStore) CountForHour(ctx context.Context, symbol string, openTime int64) (int, error) {
	const q = `SELECT count() FROM ` + forecastTable + ` WHERE symbol = ? AND open_time = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, symbol, openTime).Scan(&n); err != nil {
		return 0, fmt.Errorf("count hour: %w", err)
	}
	return n, nil
}

func (s *CHForecastStore) LatestOpenTime(ctx context.Context, symbol string, dayStart, dayEnd int64) (int64, bool, error) {
	const q = `
        SELECT open_time FROM ` + forecastTable + `
        WHERE symbol = ? AND open_time >= ? AND open_time < ?
        ORDER BY close_time DESC
        LIMIT 1
    `
	var openTime int64
	err := s.db.QueryRowContext(ctx, q, symbol, dayStart, dayEnd).Scan(&openTime)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("latest open_time: %w", err)
	}
	return openTime, true, nil
}

func (s *CHForecastStore) ForHour(ctx context.Context, symbol string, openTime int64) ([]models.Forecast, error) {
	const q = `
        SELECT symbol, open_time, close_time, open, high, low, close, volume, horizon_id, predicted_at
        FROM ` + forecastTable + `
        WHERE symbol = ? AND open_time = ?
        ORDER BY horizon_id ASC
    `
	return s.queryForecasts(ctx, q, symbol, openTime)
}

func (s *CHForecastStore) Latest(ctx context.Context, symbol string) ([]models.Forecast, error) {
	const q = `
        SELECT symbol, open_time, close_time, open, high, low, close, volume, horizon_id, predicted_at
        FROM ` + forecastTable + `
        WHERE symbol = ? AND open_time = (
            SELECT max(open_time) FROM ` + forecastTable + ` WHERE symbol = ?
        )
        ORDER BY horizon_id ASC
    `
	return s.queryForecasts(ctx, q, symbol, symbol)
}

func (s *CHForecastStore) CleanupBefore(ctx context.Context, symbol string, cutoff int64) (int64, error) {
	const cq = `SELECT count() FROM ` + forecastTable + ` WHERE symbol = ? AND open_time < ?`
	var n int64
	if err := s.db.QueryRowContext(ctx, cq, symbol, cutoff).Scan(&n); err != nil {
		return 0, fmt.Errorf("count aged: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	const dq = `DELETE FROM ` + forecastTable + ` WHERE symbol = ? AND open_time < ?`
	if _, err := s.db.ExecContext(ctx, dq, symbol, cutoff); err != nil {
		return 0, fmt.Errorf("delete aged: %w", err)
	}
	return n, nil
}

func (s *CHForecastStore) queryForecasts(ctx context.Context, q string, args ...interface{}) ([]models.Forecast, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse forecast query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query forecasts: %w", err)
	}
	defer rows.Close()

	out := make([]models.Forecast, 0, 12)
	for rows.Next() {
		var f models.Forecast
		if err := rows.Scan(&f.Symbol, &f.OpenTime, &f.CloseTime,
			&f.Open, &f.High, &f.Low, &f.Close, &f.Volume,
			&f.HorizonID, &f.PredictedAt,
		); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
