package tuning

import (
	"context"
	"math"

	"FinTune/internal/domain/models"
	"FinTune/internal/domain/service"
)

// Evaluator produces a leakage-free estimate of a configuration's predictive
// and trading performance by simulating sequential out-of-sample deployment.
type Evaluator struct {
	pred service.Predictor
}

func NewEvaluator(pred service.Predictor) *Evaluator {
	return &Evaluator{pred: pred}
}

// split defines one chronological train/test segment. The training prefix is
// [0, trainEnd); embargo bars between trainEnd and testStart are excluded
// from both sides so overlapping feature windows cannot leak labels.
type split struct {
	trainEnd  int
	testStart int
	testEnd   int
}

// buildSplits partitions [0, n) into cfg.Splits contiguous test windows over
// the region after the minimum training prefix. Windows are half-open index
// intervals.
func buildSplits(symbol string, n int, cfg models.ModelConfig) ([]split, error) {
	if err := cfg.CheckEvaluable(symbol, n); err != nil {
		return nil, err
	}
	minTrain := cfg.WindowSize + 1
	regionStart := minTrain + cfg.EmbargoBars
	testBars := n - regionStart
	if testBars <= 0 {
		return nil, &models.InsufficientDataError{Symbol: symbol, Need: regionStart + 1, Have: n}
	}

	width := testBars / cfg.Splits
	rem := testBars % cfg.Splits
	splits := make([]split, 0, cfg.Splits)
	start := regionStart
	for k := 0; k < cfg.Splits; k++ {
		w := width
		if k < rem {
			w++
		}
		if w == 0 {
			continue
		}
		splits = append(splits, split{
			trainEnd:  start - cfg.EmbargoBars,
			testStart: start,
			testEnd:   start + w,
		})
		start += w
	}
	if len(splits) == 0 {
		return nil, &models.InsufficientDataError{Symbol: symbol, Reason: "series too short for any test window"}
	}
	return splits, nil
}

// Evaluate runs the walk-forward simulation for one configuration.
// fullModel/fullScalers are the artifacts trained on the full history; in
// cv_mode=single they are reused for every split, in cv_mode=rolling each
// split retrains on its own growing prefix.
func (e *Evaluator) Evaluate(ctx context.Context, series models.BarSeries, cfg models.ModelConfig,
	fullModel *models.TrainedModel, fullScalers *models.ScalerSet) (models.WalkForwardResult, error) {

	splits, err := buildSplits(series.Symbol, series.Len(), cfg)
	if err != nil {
		return models.WalkForwardResult{}, err
	}

	res := models.WalkForwardResult{TotalSplits: len(splits)}
	var mseSum float64
	for _, sp := range splits {
		if sp.trainEnd < cfg.WindowSize+1 {
			continue // training prefix too short, excluded not zero-filled
		}

		model, scalers := fullModel, fullScalers
		if cfg.CVMode == models.CVRolling {
			model, scalers, err = e.pred.Train(ctx, series.Slice(0, sp.trainEnd), cfg)
			if err != nil {
				return res, &models.TrainingFailure{Err: err}
			}
		}

		trades, segMSE, err := e.simulateSegment(ctx, series, cfg, model, scalers, sp)
		if err != nil {
			return res, &models.PredictionFailure{Err: err}
		}
		if len(trades) == 0 {
			continue // zero-trade split is invalid, excluded from aggregation
		}

		res.Segments = append(res.Segments, metricsFromTrades(trades, sp.testEnd-sp.testStart, cfg.Business.ProfitFactorCap))
		res.ValidSplits++
		mseSum += segMSE
	}

	if res.ValidSplits == 0 {
		return res, &models.InsufficientDataError{Symbol: series.Symbol, Reason: "no valid walk-forward split"}
	}
	res.MeanMSE = mseSum / float64(res.ValidSplits)
	return res, nil
}

// trade is one simulated round trip.
type trade struct {
	pnl  float64
	bars int
}

// simulateSegment walks the test window bar by bar. Each prediction uses
// only the window ending at the previous bar. A position opens when the
// predicted move from the last close exceeds the volatility-derived
// threshold and closes at the horizon boundary (or the window end).
func (e *Evaluator) simulateSegment(ctx context.Context, series models.BarSeries, cfg models.ModelConfig,
	model *models.TrainedModel, scalers *models.ScalerSet, sp split) ([]trade, float64, error) {

	var trades []trade
	var sse float64
	var predicted int

	for t := sp.testStart; t < sp.testEnd; t++ {
		window := series.Slice(t-cfg.WindowSize, t)
		pred, err := e.pred.PredictNext(ctx, window, cfg, model, scalers)
		if err != nil {
			return nil, 0, err
		}
		actual := series.Close(t)
		sse += (pred - actual) * (pred - actual)
		predicted++

		lastClose := series.Close(t - 1)
		if lastClose == 0 {
			continue
		}
		threshold := volatilityThreshold(series, t, cfg.WindowSize) * lastClose
		delta := pred - lastClose
		if math.Abs(delta) <= threshold {
			continue
		}

		exitIdx := t - 1 + cfg.Horizon
		if exitIdx > sp.testEnd-1 {
			exitIdx = sp.testEnd - 1
		}
		if exitIdx <= t-1 {
			continue // cannot close inside the window
		}
		dir := 1.0
		if delta < 0 {
			dir = -1.0
		}
		pnl := dir * (series.Close(exitIdx) - lastClose) / lastClose
		trades = append(trades, trade{pnl: pnl, bars: exitIdx - (t - 1)})

		// position is exclusive; resume after the exit bar
		t = exitIdx
	}

	if predicted == 0 {
		return trades, 0, nil
	}
	return trades, sse / float64(predicted), nil
}

// volatilityThreshold is the standard deviation of close-to-close returns
// over the lookback window ending just before bar t.
func volatilityThreshold(series models.BarSeries, t, window int) float64 {
	start := t - window
	if start < 1 {
		start = 1
	}
	var rets []float64
	for i := start; i < t; i++ {
		prev := series.Close(i - 1)
		if prev == 0 {
			continue
		}
		rets = append(rets, series.Close(i)/prev-1)
	}
	if len(rets) < 2 {
		return 0
	}
	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	var variance float64
	for _, r := range rets {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rets) - 1)
	return math.Sqrt(variance)
}

// metricsFromTrades computes the per-segment trading metrics. A profit
// factor with zero losing trades is clamped to the cap here, before any
// aggregation, so infinity never enters a mean.
func metricsFromTrades(trades []trade, testBars int, pfCap float64) models.TradingMetrics {
	var m models.TradingMetrics
	m.NumTrades = len(trades)
	if len(trades) == 0 {
		return m
	}

	var grossWin, grossLoss float64
	var wins int
	var totalBars int
	equity, peak, maxDD := 1.0, 1.0, 0.0
	var downside float64

	for _, t := range trades {
		m.TotalProfit += t.pnl
		totalBars += t.bars
		if t.pnl > 0 {
			wins++
			grossWin += t.pnl
		} else {
			grossLoss += -t.pnl
			downside += t.pnl * t.pnl
		}

		equity *= 1.0 + t.pnl
		if equity > peak {
			peak = equity
		}
		if dd := (peak - equity) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	n := float64(len(trades))
	m.WinRate = float64(wins) / n
	m.Expectancy = m.TotalProfit / n
	m.MaxDrawdownPct = maxDD

	if grossLoss > 0 {
		m.ProfitFactor = grossWin / grossLoss
	} else {
		m.ProfitFactor = pfCap
	}
	if m.ProfitFactor > pfCap {
		m.ProfitFactor = pfCap
	}

	downsideDev := math.Sqrt(downside / n)
	if downsideDev > 0 {
		m.Sortino = m.Expectancy / downsideDev
	}
	if maxDD > 0 {
		m.Calmar = (equity - 1.0) / maxDD
	}
	if testBars > 0 {
		m.Turnover = 2 * n / float64(testBars)
	}
	m.AvgBarsInPosition = float64(totalBars) / n
	return m
}
