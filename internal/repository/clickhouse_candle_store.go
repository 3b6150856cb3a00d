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

const candleTable = "fincast.candles_1m"

// CHCandleSource implements CandleSource backed by ClickHouse. The candle
// table is populated by the upstream ingestion pipeline; this store only
// reads it.
type CHCandleSource struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCandleSource(ch *pkgch.Client) *CHCandleSource {
	return &CHCandleSource{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleSource) GetHistory(ctx context.Context, symbol string, end time.Time) ([]models.Candle, error) {
	start := time.Now()
	q := `
        SELECT symbol, open_time, close_time, open, high, low, close, volume
        FROM ` + candleTable + `
        WHERE symbol = ?
    `
	args := []interface{}{symbol}
	if !end.IsZero() {
		q += " AND open_time < ?"
		args = append(args, end.UnixMilli())
	}
	q += " ORDER BY open_time ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_history query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 4096)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Symbol, &c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_history scan error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_history rows error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_history ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleSource) GetCandleAt(ctx context.Context, symbol string, openTime int64) (*models.Candle, error) {
	const q = `
        SELECT symbol, open_time, close_time, open, high, low, close, volume
        FROM ` + candleTable + `
        WHERE symbol = ? AND open_time = ?
        LIMIT 1
    `
	var c models.Candle
	err := s.db.QueryRowContext(ctx, q, symbol, openTime).
		Scan(&c.Symbol, &c.OpenTime, &c.CloseTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse candle_at query error",
				applogger.String("symbol", symbol),
				applogger.Int64("open_time", openTime),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get candle at %d: %w", openTime, err)
	}
	return &c, nil
}

func (s *CHCandleSource) Symbols(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT symbol FROM ` + candleTable + ` ORDER BY symbol`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHCandleSource) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
