package predictor

import (
	"context"
	"math"
	"testing"
	"time"

	"FinTune/internal/domain/models"
)

func nativeTestConfig() models.ModelConfig {
	return models.ModelConfig{
		WindowSize:   10,
		HiddenUnits:  16,
		Dropout:      0.1,
		LearningRate: 0.01,
		Optimizer:    "adam",
		Layers:       1,
		BatchSize:    16,
		Horizon:      3,
		Features:     []string{"close", "volume"},
		SwingType:    models.SwingIntraday,
		CVMode:       models.CVSingle,
		Splits:       3,
		EmbargoBars:  1,
		Seed:         42,
		Business:     models.BusinessParams{ProfitFactorCap: 4, DrawdownGamma: 1.5},
	}
}

func nativeTestSeries(n int) models.BarSeries {
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		bars[i] = models.Bar{
			Time:   time.Unix(int64(i)*60, 0),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000 + float64(i%7)*50,
			VWAP:   price,
		}
		price += math.Sin(float64(i)/5) + 0.5
	}
	return models.BarSeries{Symbol: "NATIVE", Bars: bars}
}

func TestNativeTrainDeterministic(t *testing.T) {
	n := NewNative()
	cfg := nativeTestConfig()
	series := nativeTestSeries(80)

	m1, sc1, err := n.Train(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	m2, _, err := n.Train(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if len(m1.Weights) != len(m2.Weights) {
		t.Fatalf("weight dims differ: %d vs %d", len(m1.Weights), len(m2.Weights))
	}
	for i := range m1.Weights {
		if m1.Weights[i] != m2.Weights[i] {
			t.Fatalf("weight %d differs across identically seeded runs", i)
		}
	}
	if sc1.OwnerKey != cfg.Key() {
		t.Fatalf("scaler owner %s, want %s", sc1.OwnerKey, cfg.Key())
	}
}

func TestNativeSeedChangesWeights(t *testing.T) {
	n := NewNative()
	series := nativeTestSeries(80)
	a := nativeTestConfig()
	b := nativeTestConfig()
	b.Seed = 43

	ma, _, err := n.Train(context.Background(), series, a)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	mb, _, err := n.Train(context.Background(), series, b)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	same := true
	for i := range ma.Weights {
		if ma.Weights[i] != mb.Weights[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds must produce different weights")
	}
}

func TestNativePredictNext(t *testing.T) {
	n := NewNative()
	cfg := nativeTestConfig()
	series := nativeTestSeries(80)

	m, sc, err := n.Train(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	window := series.Slice(series.Len()-cfg.WindowSize, series.Len())
	p1, err := n.PredictNext(context.Background(), window, cfg, m, sc)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.IsNaN(p1) || math.IsInf(p1, 0) {
		t.Fatalf("prediction %g not finite", p1)
	}
	p2, err := n.PredictNext(context.Background(), window, cfg, m, sc)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p1 != p2 {
		t.Fatal("prediction must be deterministic")
	}
}

func TestNativePredictRejectsForeignScalers(t *testing.T) {
	n := NewNative()
	series := nativeTestSeries(80)
	cfg := nativeTestConfig()
	other := nativeTestConfig()
	other.Seed = 99

	m, _, err := n.Train(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	_, scOther, err := n.Train(context.Background(), series, other)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	window := series.Slice(series.Len()-cfg.WindowSize, series.Len())
	if _, err := n.PredictNext(context.Background(), window, cfg, m, scOther); err == nil {
		t.Fatal("foreign scaler set must be rejected")
	}
}

func TestNativePredictRejectsWrongWindow(t *testing.T) {
	n := NewNative()
	series := nativeTestSeries(80)
	cfg := nativeTestConfig()

	m, sc, err := n.Train(context.Background(), series, cfg)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	short := series.Slice(0, cfg.WindowSize-1)
	if _, err := n.PredictNext(context.Background(), short, cfg, m, sc); err == nil {
		t.Fatal("undersized window must be rejected")
	}
}

func TestNativeTrainInsufficientData(t *testing.T) {
	n := NewNative()
	cfg := nativeTestConfig()
	series := nativeTestSeries(cfg.WindowSize) // no label bar
	if _, _, err := n.Train(context.Background(), series, cfg); err == nil {
		t.Fatal("expected insufficient data error")
	}
}
