package tuning

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"FinTune/internal/domain/models"
	drepo "FinTune/internal/domain/repository"
	"FinTune/internal/domain/service"
	applogger "FinTune/pkg/logger"
	"FinTune/pkg/workerpool"
)

// Orchestrator runs the full tuning pipeline for one instrument: fan-out of
// per-configuration evaluation tasks over a bounded pool, fan-in selection
// of the best business score, and idempotent persistence of the winner.
type Orchestrator struct {
	pred      service.Predictor
	evaluator *Evaluator
	hyper     drepo.HyperparamStore
	modelsRep drepo.ModelStore
	gov       *Governor
	board     *ProgressBoard
	excq      *ExceptionQueue
	events    drepo.EventPublisher
	metrics   drepo.Metrics
	log       *applogger.Logger
	lockTTL   time.Duration
}

func NewOrchestrator(
	pred service.Predictor,
	hyper drepo.HyperparamStore,
	modelStore drepo.ModelStore,
	gov *Governor,
	board *ProgressBoard,
	excq *ExceptionQueue,
	events drepo.EventPublisher,
	metrics drepo.Metrics,
	log *applogger.Logger,
	lockTTL time.Duration,
) *Orchestrator {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &Orchestrator{
		pred:      pred,
		evaluator: NewEvaluator(pred),
		hyper:     hyper,
		modelsRep: modelStore,
		gov:       gov,
		board:     board,
		excq:      excq,
		events:    events,
		metrics:   metrics,
		log:       log,
		lockTTL:   lockTTL,
	}
}

// TuneInstrument searches the grid for one instrument and persists the
// winner. It returns the chosen configuration, the persisted one on the
// already-tuned fast paths, nil with ErrTuningLocked when another process
// holds the advisory lock, or nil with ErrAllConfigurationsFailed when no
// configuration produced an eligible score.
func (o *Orchestrator) TuneInstrument(ctx context.Context, symbol string, grid []models.ModelConfig, series models.BarSeries) (*models.ModelConfig, error) {
	if len(grid) == 0 {
		return nil, models.NewConfigurationError("empty configuration grid for %s", symbol)
	}

	// Fast path: a persisted model means the instrument is already tuned.
	exists, err := o.modelsRep.Exists(ctx, symbol)
	if err != nil {
		o.log.Warn("model existence check failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	if exists {
		cfg, err := o.hyper.Load(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("load hyperparams for tuned %s: %w", symbol, err)
		}
		o.log.Info("already tuned, skipping", applogger.String("symbol", symbol))
		return cfg, nil
	}

	// Persisted hyperparameters without a model are still the answer.
	if cfg, err := o.hyper.Load(ctx, symbol); err != nil {
		o.log.Warn("hyperparam load failed", applogger.String("symbol", symbol), applogger.Error(err))
	} else if cfg != nil {
		o.log.Info("hyperparameters already persisted", applogger.String("symbol", symbol))
		return cfg, nil
	}

	// Advisory guard against a second process tuning the same symbol.
	if locked, err := o.hyper.TryLock(ctx, symbol, o.lockTTL); err != nil {
		o.log.Warn("tuning lock unavailable, proceeding", applogger.String("symbol", symbol), applogger.Error(err))
	} else if !locked {
		o.log.Info("another process is tuning this symbol", applogger.String("symbol", symbol))
		return nil, models.ErrTuningLocked
	} else {
		defer func() {
			if err := o.hyper.Unlock(context.Background(), symbol); err != nil {
				o.log.Warn("tuning unlock failed", applogger.String("symbol", symbol), applogger.Error(err))
			}
		}()
	}

	tracker := o.board.Start(symbol, len(grid))
	o.publishProgress(ctx, tracker)
	o.log.Info("tuning started",
		applogger.String("symbol", symbol),
		applogger.Int("configs", len(grid)),
		applogger.Int("bars", series.Len()),
	)

	parallelism := o.gov.EffectiveParallelism()
	pool := workerpool.New(parallelism, parallelism)
	defer pool.Close()

	// Slot per configuration keeps submission-order identity through
	// out-of-order completion.
	results := make([]*models.TuningResult, len(grid))

	for i, cfg := range grid {
		if err := o.gov.WaitUntilMemoryAvailable(ctx); err != nil {
			o.recordFailure(ctx, tracker, symbol, &grid[i], err)
			continue
		}
		i, cfg := i, cfg
		pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					o.recordFailure(ctx, tracker, symbol, &cfg, fmt.Errorf("panic: %v", r))
				}
			}()
			res, err := o.evaluateConfig(ctx, symbol, i, cfg, series)
			if err != nil {
				o.recordFailure(ctx, tracker, symbol, &cfg, err)
				return
			}
			results[i] = res
			tracker.TaskDone()
			o.metrics.RecordConfigEvaluated(symbol)
			o.publishProgress(ctx, tracker)
		})
	}

	// Fan-in barrier: every configuration resolves before selection.
	pool.Wait()

	if ctx.Err() != nil {
		tracker.Finish(models.StatusError)
		o.publishProgress(context.Background(), tracker)
		return nil, ctx.Err()
	}

	best := o.selectBest(results)
	if best == nil {
		tracker.Finish(models.StatusFailed)
		o.publishProgress(ctx, tracker)
		o.log.Error("no usable configuration", applogger.String("symbol", symbol))
		return nil, models.ErrAllConfigurationsFailed
	}

	tracker.SetBestScore(best.Score)
	o.metrics.RecordBestScore(symbol, best.Score)
	o.persistWinner(ctx, symbol, best)

	tracker.Finish(models.StatusDone)
	o.publishProgress(ctx, tracker)
	o.log.Info("tuning finished",
		applogger.String("symbol", symbol),
		applogger.Float64("score", best.Score),
		applogger.Float64("mean_mse", best.MeanMSE),
		applogger.String("config", best.Config.Describe()),
	)
	return &best.Config, nil
}

// evaluateConfig is the body of one tuning task: seed, train on the full
// history, walk-forward evaluate, score, and append the audit row.
func (o *Orchestrator) evaluateConfig(ctx context.Context, symbol string, gridIndex int, cfg models.ModelConfig, series models.BarSeries) (*models.TuningResult, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckEvaluable(symbol, series.Len()); err != nil {
		return nil, err
	}

	model, scalers, err := o.pred.Train(ctx, series, cfg)
	if err != nil {
		return nil, &models.TrainingFailure{Err: err}
	}

	wf, err := o.evaluator.Evaluate(ctx, series, cfg, model, scalers)
	if err != nil {
		return nil, err
	}

	agg := wf.Aggregate()
	score := BusinessScore(agg, cfg.Business)
	o.metrics.RecordEvalLatency(time.Since(start).Seconds())

	// Audit row is written for every configuration, winner or not.
	if err := o.hyper.SaveMetrics(ctx, symbol, cfg, wf.MeanMSE, agg, score); err != nil {
		o.log.Warn("metrics audit write failed",
			applogger.String("symbol", symbol),
			applogger.String("config", cfg.Key()),
			applogger.Error(err),
		)
	}

	return &models.TuningResult{
		Config:    cfg,
		GridIndex: gridIndex,
		Model:     model,
		Scalers:   scalers,
		MeanMSE:   wf.MeanMSE,
		Metrics:   agg,
		Score:     score,
	}, nil
}

// selectBest scans results in submission order so tie-breaking never
// depends on completion order. NaN and infinite scores are ineligible.
func (o *Orchestrator) selectBest(results []*models.TuningResult) *models.TuningResult {
	var best *models.TuningResult
	for _, r := range results {
		if r == nil || !Eligible(r.Score) {
			continue
		}
		if Better(r, best) {
			best = r
		}
	}
	return best
}

// persistWinner writes hyperparameters and the model artifact independently;
// a partial failure is logged and the other write still proceeds, since
// persisted hyperparameters are useful on their own.
func (o *Orchestrator) persistWinner(ctx context.Context, symbol string, best *models.TuningResult) {
	if err := o.hyper.Save(ctx, symbol, best.Config); err != nil {
		pf := &models.PersistenceFailure{Op: "hyperparams", Err: err}
		o.metrics.RecordError("persist_hyperparams")
		o.log.Error("hyperparameter save failed", applogger.String("symbol", symbol), applogger.Error(pf))
	}
	if err := o.modelsRep.Save(ctx, symbol, best.Model, best.Config, best.Scalers); err != nil {
		pf := &models.PersistenceFailure{Op: "model", Err: err}
		o.metrics.RecordError("persist_model")
		o.log.Error("model save failed", applogger.String("symbol", symbol), applogger.Error(pf))
	}
}

// recordFailure captures one task failure at the task boundary: exception
// entry, progress update, telemetry. Sibling tasks are unaffected.
func (o *Orchestrator) recordFailure(ctx context.Context, tracker *ProgressTracker, symbol string, cfg *models.ModelConfig, err error) {
	entry := models.ExceptionEntry{
		Symbol:  symbol,
		Config:  cfg,
		Message: err.Error(),
		Stack:   string(debug.Stack()),
		At:      time.Now(),
	}
	o.excq.Append(entry)
	tracker.TaskDone()
	o.metrics.RecordConfigFailed(symbol, failureKind(err))
	if o.events != nil {
		if perr := o.events.PublishException(ctx, entry); perr != nil {
			o.log.Warn("exception publish failed", applogger.Error(perr))
		}
	}
	o.publishProgress(ctx, tracker)
	o.log.Warn("configuration failed",
		applogger.String("symbol", symbol),
		applogger.Error(err),
	)
}

func (o *Orchestrator) publishProgress(ctx context.Context, tracker *ProgressTracker) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishProgress(ctx, tracker.Snapshot()); err != nil {
		o.log.Warn("progress publish failed", applogger.Error(err))
	}
}

func failureKind(err error) string {
	var (
		ce *models.ConfigurationError
		ie *models.InsufficientDataError
		te *models.TrainingFailure
		re *models.PredictionFailure
		pe *models.PersistenceFailure
	)
	switch {
	case errors.As(err, &ce):
		return "configuration"
	case errors.As(err, &ie):
		return "insufficient_data"
	case errors.As(err, &te):
		return "training"
	case errors.As(err, &re):
		return "prediction"
	case errors.As(err, &pe):
		return "persistence"
	default:
		return "other"
	}
}
