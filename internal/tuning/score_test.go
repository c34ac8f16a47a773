package tuning

import (
	"math"
	"testing"

	"FinTune/internal/domain/models"
)

var scoreParams = models.BusinessParams{ProfitFactorCap: 4, DrawdownGamma: 1.5}

func baseMetrics() models.TradingMetrics {
	return models.TradingMetrics{
		Expectancy:     0.01,
		ProfitFactor:   2,
		WinRate:        0.6,
		MaxDrawdownPct: 0.1,
	}
}

func TestBusinessScoreMonotonicity(t *testing.T) {
	base := BusinessScore(baseMetrics(), scoreParams)

	m := baseMetrics()
	m.Expectancy = 0.02
	if BusinessScore(m, scoreParams) <= base {
		t.Fatal("higher expectancy must raise the score")
	}

	m = baseMetrics()
	m.WinRate = 0.8
	if BusinessScore(m, scoreParams) <= base {
		t.Fatal("higher win rate must raise the score")
	}

	m = baseMetrics()
	m.MaxDrawdownPct = 0.5
	if BusinessScore(m, scoreParams) >= base {
		t.Fatal("higher drawdown must lower the score")
	}
}

func TestBusinessScoreNegativeExpectancy(t *testing.T) {
	m := baseMetrics()
	m.Expectancy = -0.05
	if got := BusinessScore(m, scoreParams); got != 0 {
		t.Fatalf("negative expectancy should floor at zero, got %g", got)
	}
}

func TestBusinessScoreInfProfitFactorEqualsCap(t *testing.T) {
	capped := baseMetrics()
	capped.ProfitFactor = scoreParams.ProfitFactorCap

	inf := baseMetrics()
	inf.ProfitFactor = math.Inf(1)

	if BusinessScore(inf, scoreParams) != BusinessScore(capped, scoreParams) {
		t.Fatal("infinite profit factor must score exactly as the cap")
	}

	over := baseMetrics()
	over.ProfitFactor = 100
	if BusinessScore(over, scoreParams) != BusinessScore(capped, scoreParams) {
		t.Fatal("profit factor above the cap must score exactly as the cap")
	}
}

func TestEligible(t *testing.T) {
	if Eligible(math.NaN()) {
		t.Fatal("NaN must be ineligible")
	}
	if Eligible(math.Inf(1)) {
		t.Fatal("+Inf must be ineligible")
	}
	if !Eligible(0) || !Eligible(1.5) {
		t.Fatal("finite scores must be eligible")
	}
}

func TestBetterTieBreaking(t *testing.T) {
	a := &models.TuningResult{Score: 1.0, MeanMSE: 0.2, GridIndex: 3}
	b := &models.TuningResult{Score: 1.0, MeanMSE: 0.1, GridIndex: 7}
	c := &models.TuningResult{Score: 1.0, MeanMSE: 0.1, GridIndex: 2}

	if !Better(a, nil) {
		t.Fatal("anything beats a nil incumbent")
	}
	if !Better(b, a) {
		t.Fatal("equal score, lower MSE must win")
	}
	if !Better(c, b) {
		t.Fatal("equal score and MSE, earlier grid index must win")
	}
	if Better(b, c) {
		t.Fatal("later grid index must not displace an equal earlier one")
	}

	hi := &models.TuningResult{Score: 2.0, MeanMSE: 9, GridIndex: 50}
	if !Better(hi, c) {
		t.Fatal("higher score wins regardless of MSE and index")
	}
}
