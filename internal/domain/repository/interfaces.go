package repository

import (
	"context"
	"time"

	"FinTune/internal/domain/models"
)

// SeriesProvider serves historical bar series, read-only. An unknown symbol
// yields an empty series, not an error.
type SeriesProvider interface {
	GetBarSeries(ctx context.Context, symbol string) (models.BarSeries, error)
}

// HyperparamStore persists winning hyperparameters per instrument and keeps
// an append-only audit log of every evaluated configuration.
type HyperparamStore interface {
	// Load returns (nil, nil) when no record exists.
	Load(ctx context.Context, symbol string) (*models.ModelConfig, error)
	Save(ctx context.Context, symbol string, cfg models.ModelConfig) error
	// SaveMetrics appends one audit row; rows are never overwritten.
	SaveMetrics(ctx context.Context, symbol string, cfg models.ModelConfig, meanMSE float64, m models.TradingMetrics, score float64) error
	// TryLock takes the advisory per-symbol tuning lock. It guards against
	// two processes tuning the same instrument; it is advisory, not
	// transactional.
	TryLock(ctx context.Context, symbol string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, symbol string) error
}

// ModelStore persists trained model artifacts together with the scaler set
// they were fitted with.
type ModelStore interface {
	Exists(ctx context.Context, symbol string) (bool, error)
	Save(ctx context.Context, symbol string, m *models.TrainedModel, cfg models.ModelConfig, sc *models.ScalerSet) error
	Load(ctx context.Context, symbol string) (*models.TrainedModel, *models.ScalerSet, error)
}

// EventPublisher emits tuning lifecycle events for external dashboards.
type EventPublisher interface {
	PublishProgress(ctx context.Context, p models.TuningProgress) error
	PublishException(ctx context.Context, e models.ExceptionEntry) error
	Close() error
}

// Metrics records tuning telemetry.
type Metrics interface {
	RecordConfigEvaluated(symbol string)
	RecordConfigFailed(symbol, kind string)
	RecordBestScore(symbol string, score float64)
	RecordEvalLatency(seconds float64)
	RecordError(kind string)
}
