package models

import (
	"math"
	"testing"
)

func TestAggregateMetricsMean(t *testing.T) {
	segs := []TradingMetrics{
		{NumTrades: 4, Expectancy: 0.02, WinRate: 0.5, ProfitFactor: 2, MaxDrawdownPct: 0.1},
		{NumTrades: 6, Expectancy: 0.04, WinRate: 0.7, ProfitFactor: 4, MaxDrawdownPct: 0.3},
	}
	agg := AggregateMetrics(segs)

	if agg.NumTrades != 5 {
		t.Fatalf("num trades %d, want rounded mean 5", agg.NumTrades)
	}
	if math.Abs(agg.Expectancy-0.03) > 1e-12 {
		t.Fatalf("expectancy %g, want 0.03", agg.Expectancy)
	}
	if math.Abs(agg.WinRate-0.6) > 1e-12 {
		t.Fatalf("win rate %g, want 0.6", agg.WinRate)
	}
	if math.Abs(agg.ProfitFactor-3) > 1e-12 {
		t.Fatalf("profit factor %g, want 3", agg.ProfitFactor)
	}
	if math.Abs(agg.MaxDrawdownPct-0.2) > 1e-12 {
		t.Fatalf("max drawdown %g, want 0.2", agg.MaxDrawdownPct)
	}
}

func TestAggregateMetricsEmpty(t *testing.T) {
	agg := AggregateMetrics(nil)
	if agg != (TradingMetrics{}) {
		t.Fatalf("empty input must aggregate to zero value, got %+v", agg)
	}
}

func TestScalerRoundTrip(t *testing.T) {
	s := Scaler{Min: 10, Max: 30}
	for _, v := range []float64{10, 17.5, 30} {
		got := s.Inverse(s.Transform(v))
		if math.Abs(got-v) > 1e-12 {
			t.Fatalf("round trip %g -> %g", v, got)
		}
	}
	if s.Transform(10) != 0 || s.Transform(30) != 1 {
		t.Fatal("transform must map [min,max] to [0,1]")
	}
}

func TestScalerDegenerate(t *testing.T) {
	s := Scaler{Min: 5, Max: 5}
	if s.Transform(5) != 0 {
		t.Fatal("degenerate scaler must map to 0, not NaN")
	}
}

func TestScalerSetCheckOwner(t *testing.T) {
	sc := &ScalerSet{OwnerKey: "abc"}
	if err := sc.CheckOwner("abc"); err != nil {
		t.Fatalf("matching owner: %v", err)
	}
	if err := sc.CheckOwner("def"); err == nil {
		t.Fatal("foreign owner must be rejected")
	}
}
