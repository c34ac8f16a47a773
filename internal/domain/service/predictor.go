package service

import (
	"context"

	"FinTune/internal/domain/models"
)

// Predictor is the trainable model backend. Implementations must be
// deterministic: identical seeds, configuration and series produce identical
// models and predictions. All backend-specific memory management stays
// behind this interface; callers only hold the returned artifacts.
type Predictor interface {
	// Train fits a model and its scaler set on the given series.
	Train(ctx context.Context, series models.BarSeries, cfg models.ModelConfig) (*models.TrainedModel, *models.ScalerSet, error)

	// PredictNext returns the predicted next close given a window of the
	// most recent cfg.WindowSize bars. Using scalers fitted for a different
	// model is an error.
	PredictNext(ctx context.Context, window models.BarSeries, cfg models.ModelConfig, m *models.TrainedModel, sc *models.ScalerSet) (float64, error)

	// Release drops backend workspaces. The scheduler calls it between
	// instruments as the best-effort cleanup hook.
	Release()
}
