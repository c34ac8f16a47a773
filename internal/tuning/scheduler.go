package tuning

import (
	"context"
	"errors"
	"sync/atomic"

	"FinTune/internal/domain/models"
	drepo "FinTune/internal/domain/repository"
	"FinTune/internal/domain/service"
	applogger "FinTune/pkg/logger"
	"FinTune/pkg/workerpool"
)

// GridFunc builds the configuration grid for one instrument.
type GridFunc func(symbol string) ([]models.ModelConfig, error)

// Scheduler iterates instruments and runs the orchestrator per instrument
// with its own bounded parallelism, separate from the per-configuration
// pool so total concurrent memory use stays capped.
type Scheduler struct {
	orch     *Orchestrator
	series   drepo.SeriesProvider
	pred     service.Predictor
	log      *applogger.Logger
	parallel int
}

func NewScheduler(orch *Orchestrator, series drepo.SeriesProvider, pred service.Predictor, log *applogger.Logger, symbolParallelism int) *Scheduler {
	if symbolParallelism < 1 {
		symbolParallelism = 1
	}
	return &Scheduler{
		orch:     orch,
		series:   series,
		pred:     pred,
		log:      log,
		parallel: symbolParallelism,
	}
}

// TuneAll tunes every instrument in the list. A single instrument's failure
// is logged and does not abort the remaining run. Returns the number of
// instruments that ended with a usable configuration.
func (s *Scheduler) TuneAll(ctx context.Context, symbols []string, gridFn GridFunc) int {
	pool := workerpool.New(s.parallel, 0)
	defer pool.Close()

	var tuned atomic.Int64
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			s.log.Warn("tuning run cancelled", applogger.Error(ctx.Err()))
			break
		}
		symbol := symbol
		pool.Submit(func() {
			if s.tuneOne(ctx, symbol, gridFn) {
				tuned.Add(1)
			}
			// Best-effort workspace cleanup between instruments; the
			// predictor owns all backend-specific memory.
			s.pred.Release()
		})
	}
	pool.Wait()

	s.log.Info("tuning run complete",
		applogger.Int("symbols", len(symbols)),
		applogger.Int("tuned", int(tuned.Load())),
	)
	return int(tuned.Load())
}

func (s *Scheduler) tuneOne(ctx context.Context, symbol string, gridFn GridFunc) bool {
	grid, err := gridFn(symbol)
	if err != nil {
		s.log.Error("grid generation failed", applogger.String("symbol", symbol), applogger.Error(err))
		return false
	}

	series, err := s.series.GetBarSeries(ctx, symbol)
	if err != nil {
		s.log.Error("series fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
		return false
	}
	if series.Len() == 0 {
		s.log.Warn("empty bar series, skipping", applogger.String("symbol", symbol))
		return false
	}

	cfg, err := s.orch.TuneInstrument(ctx, symbol, grid, series)
	if err != nil {
		if errors.Is(err, models.ErrTuningLocked) {
			s.log.Info("symbol locked by another process, skipping", applogger.String("symbol", symbol))
			return false
		}
		if errors.Is(err, models.ErrAllConfigurationsFailed) {
			s.log.Error("symbol tuning failed", applogger.String("symbol", symbol), applogger.Error(err))
		} else {
			s.log.Error("orchestrator error", applogger.String("symbol", symbol), applogger.Error(err))
		}
		return false
	}
	return cfg != nil
}
