package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinTune/internal/domain/models"
	pkgch "FinTune/pkg/clickhouse"
	applogger "FinTune/pkg/logger"
)

const barsTable = "fintune.bars"

// CHBarStore serves historical bar series from ClickHouse. The table is
// assumed time-ascending per (symbol, t); an unknown symbol comes back as an
// empty series.
type CHBarStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, l *applogger.Logger) *CHBarStore {
	return &CHBarStore{db: ch.DB(), l: l}
}

func (s *CHBarStore) GetBarSeries(ctx context.Context, symbol string) (models.BarSeries, error) {
	start := time.Now()
	const q = `
        SELECT t, o, h, l, c, v, vw, n
        FROM ` + barsTable + `
        WHERE symbol = ?
        ORDER BY t ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		s.l.Error("clickhouse bars query error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return models.BarSeries{}, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	series := models.BarSeries{Symbol: symbol, Bars: make([]models.Bar, 0, 1024)}
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.VWAP, &b.TradeCount); err != nil {
			s.l.Error("clickhouse bars scan error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			return models.BarSeries{}, fmt.Errorf("scan bar: %w", err)
		}
		series.Bars = append(series.Bars, b)
	}
	if err := rows.Err(); err != nil {
		return models.BarSeries{}, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse bars ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", series.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}
