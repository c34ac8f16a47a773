package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"FinTune/internal/domain/models"
	pkgch "FinTune/pkg/clickhouse"
)

const auditTable = "fintune.tuning_evaluations"

// CHAuditLog appends one row per evaluated configuration. Rows are
// append-only; re-tuning a symbol adds new rows rather than overwriting.
type CHAuditLog struct {
	db *sql.DB
}

func NewCHAuditLog(ch *pkgch.Client) *CHAuditLog {
	return &CHAuditLog{db: ch.DB()}
}

func (a *CHAuditLog) InsertEvaluation(ctx context.Context, symbol string, cfg models.ModelConfig, meanMSE float64, m models.TradingMetrics, score float64) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	const q = `
        INSERT INTO ` + auditTable + `
        (ts, symbol, config_key, config, mean_mse, score,
         num_trades, total_profit, profit_factor, win_rate, expectancy, max_drawdown_pct)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = a.db.ExecContext(ctx, q,
		time.Now().UTC(),
		symbol,
		cfg.Key(),
		string(cfgJSON),
		meanMSE,
		score,
		m.NumTrades,
		m.TotalProfit,
		m.ProfitFactor,
		m.WinRate,
		m.Expectancy,
		m.MaxDrawdownPct,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}
