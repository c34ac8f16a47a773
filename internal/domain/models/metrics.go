package models

import "math"

// TradingMetrics summarizes the simulated trades of one walk-forward
// segment. Values are immutable once computed.
type TradingMetrics struct {
	NumTrades         int     `json:"num_trades"`
	TotalProfit       float64 `json:"total_profit"`
	ProfitFactor      float64 `json:"profit_factor"`
	WinRate           float64 `json:"win_rate"`
	Expectancy        float64 `json:"expectancy"`
	MaxDrawdownPct    float64 `json:"max_drawdown_pct"`
	Sortino           float64 `json:"sortino"`
	Calmar            float64 `json:"calmar"`
	Turnover          float64 `json:"turnover"`
	AvgBarsInPosition float64 `json:"avg_bars_in_position"`
}

// AggregateMetrics takes the arithmetic mean over valid segments. Segments
// that failed evaluation must not be in the input; they are excluded, never
// zero-filled.
func AggregateMetrics(segments []TradingMetrics) TradingMetrics {
	if len(segments) == 0 {
		return TradingMetrics{}
	}
	var agg TradingMetrics
	var trades float64
	for _, m := range segments {
		trades += float64(m.NumTrades)
		agg.TotalProfit += m.TotalProfit
		agg.ProfitFactor += m.ProfitFactor
		agg.WinRate += m.WinRate
		agg.Expectancy += m.Expectancy
		agg.MaxDrawdownPct += m.MaxDrawdownPct
		agg.Sortino += m.Sortino
		agg.Calmar += m.Calmar
		agg.Turnover += m.Turnover
		agg.AvgBarsInPosition += m.AvgBarsInPosition
	}
	n := float64(len(segments))
	agg.NumTrades = int(math.Round(trades / n))
	agg.TotalProfit /= n
	agg.ProfitFactor /= n
	agg.WinRate /= n
	agg.Expectancy /= n
	agg.MaxDrawdownPct /= n
	agg.Sortino /= n
	agg.Calmar /= n
	agg.Turnover /= n
	agg.AvgBarsInPosition /= n
	return agg
}

// WalkForwardResult is the evaluator output for one configuration.
type WalkForwardResult struct {
	MeanMSE     float64          `json:"mean_mse"`
	Segments    []TradingMetrics `json:"segments"`
	ValidSplits int              `json:"valid_splits"`
	TotalSplits int              `json:"total_splits"`
}

// Aggregate returns the mean TradingMetrics over the valid segments.
func (r WalkForwardResult) Aggregate() TradingMetrics {
	return AggregateMetrics(r.Segments)
}

// TuningResult binds one configuration to its evaluation outcome. It lives
// only until selection: losers release their model and scalers.
type TuningResult struct {
	Config    ModelConfig
	GridIndex int
	Model     *TrainedModel
	Scalers   *ScalerSet
	MeanMSE   float64
	Metrics   TradingMetrics
	Score     float64
}
