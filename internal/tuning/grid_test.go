package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"FinTune/internal/domain/models"
)

func testAxes() Axes {
	return Axes{
		WindowSizes:   []int{10, 20},
		HiddenUnits:   []int{32},
		Dropouts:      []float64{0.1},
		LearningRates: []float64{0.001, 0.01},
		L1s:           []float64{0},
		L2s:           []float64{0},
		Optimizers:    []string{"adam"},
		Layers:        []int{1},
		Bidirectional: []bool{false},
		Attention:     []bool{false},
		BatchSizes:    []int{32},
		Horizons:      []int{3, 5},
		FeatureSets:   [][]string{{"close"}, {"close", "volume"}},
		SwingTypes:    []models.SwingType{models.SwingIntraday},
		CVModes:       []models.CVMode{models.CVSingle},
		Splits:        []int{5},
		EmbargoBars:   []int{2},
		Seeds:         []int64{1},
		Business:      models.BusinessParams{ProfitFactorCap: 4, DrawdownGamma: 1.5},
	}
}

func TestCartesianCount(t *testing.T) {
	grid, err := Cartesian(testAxes())
	if err != nil {
		t.Fatalf("cartesian: %v", err)
	}
	// 2 windows * 2 learning rates * 2 horizons * 2 feature sets
	if len(grid) != 16 {
		t.Fatalf("expected 16 configs, got %d", len(grid))
	}
}

func TestCartesianOrder(t *testing.T) {
	grid, err := Cartesian(testAxes())
	if err != nil {
		t.Fatalf("cartesian: %v", err)
	}
	// first axis varies slowest
	if grid[0].WindowSize != 10 {
		t.Fatalf("first config window = %d, want 10", grid[0].WindowSize)
	}
	if grid[len(grid)-1].WindowSize != 20 {
		t.Fatalf("last config window = %d, want 20", grid[len(grid)-1].WindowSize)
	}
	// last axis (seeds has len 1; feature_sets is the fastest multi-value axis
	// before splits/embargo/seeds) cycles before the first
	if grid[0].WindowSize != grid[1].WindowSize {
		t.Fatal("adjacent configs should share the slowest axis value")
	}
	// every config carries the shared business params
	for i, c := range grid {
		if c.Business.ProfitFactorCap != 4 {
			t.Fatalf("config %d lost business params", i)
		}
	}
}

func TestCartesianEmptyAxis(t *testing.T) {
	a := testAxes()
	a.Horizons = nil
	_, err := Cartesian(a)
	var ce *models.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestSampleReproducible(t *testing.T) {
	a := testAxes()
	g1, err := Sample(a, 8, 99)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	g2, err := Sample(a, 8, 99)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(g1) != 8 || len(g2) != 8 {
		t.Fatalf("expected 8 configs, got %d and %d", len(g1), len(g2))
	}
	for i := range g1 {
		if g1[i].Key() != g2[i].Key() {
			t.Fatalf("config %d differs across identically seeded samples", i)
		}
	}
}

func TestSampleInvalidSize(t *testing.T) {
	if _, err := Sample(testAxes(), 0, 1); err == nil {
		t.Fatal("expected error for zero sample size")
	}
}

func TestLoadAxes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.yaml")
	data := []byte(`
window_sizes: [10]
hidden_units: [16]
dropouts: [0.1]
learning_rates: [0.01]
l1s: [0]
l2s: [0]
optimizers: [adam]
layers: [1]
bidirectional: [false]
attention: [false]
batch_sizes: [16]
horizons: [3]
feature_sets: [[close]]
swing_types: [intraday]
cv_modes: [single]
splits: [3]
embargo_bars: [1]
seeds: [7]
business:
  profit_factor_cap: 4.0
  drawdown_gamma: 1.5
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write grid: %v", err)
	}

	a, err := LoadAxes(path)
	if err != nil {
		t.Fatalf("load axes: %v", err)
	}
	grid, err := Cartesian(a)
	if err != nil {
		t.Fatalf("cartesian: %v", err)
	}
	if len(grid) != 1 {
		t.Fatalf("expected 1 config, got %d", len(grid))
	}
	if grid[0].Business.DrawdownGamma != 1.5 {
		t.Fatalf("business params not parsed: %+v", grid[0].Business)
	}
}
