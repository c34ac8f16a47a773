package tuning

import (
	"math"

	"FinTune/internal/domain/models"
)

// scoreEpsilon keeps the denominator strictly positive.
const scoreEpsilon = 1e-9

// BusinessScore ranks a configuration by trading quality rather than raw
// prediction error:
//
//	score = (max(expectancy, 0) * min(profitFactor, cap) * winRate)
//	        / (1 + maxDrawdownPct^gamma + eps)
//
// The profit factor is clamped to the cap before scoring so a handful of
// lucky trades with zero losses (mathematically infinite profit factor)
// cannot dominate the search.
func BusinessScore(m models.TradingMetrics, p models.BusinessParams) float64 {
	pf := m.ProfitFactor
	if math.IsInf(pf, 1) || pf > p.ProfitFactorCap {
		pf = p.ProfitFactorCap
	}
	exp := math.Max(m.Expectancy, 0)
	dd := math.Max(m.MaxDrawdownPct, 0)
	return exp * pf * m.WinRate / (1 + math.Pow(dd, p.DrawdownGamma) + scoreEpsilon)
}

// Eligible reports whether a score may participate in selection.
func Eligible(score float64) bool {
	return !math.IsNaN(score) && !math.IsInf(score, 0)
}

// Better decides whether candidate beats incumbent. Ties break on lower mean
// MSE, then on earlier grid position, so selection is deterministic under
// out-of-order task completion.
func Better(candidate, incumbent *models.TuningResult) bool {
	if incumbent == nil {
		return true
	}
	if candidate.Score != incumbent.Score {
		return candidate.Score > incumbent.Score
	}
	if candidate.MeanMSE != incumbent.MeanMSE {
		return candidate.MeanMSE < incumbent.MeanMSE
	}
	return candidate.GridIndex < incumbent.GridIndex
}
