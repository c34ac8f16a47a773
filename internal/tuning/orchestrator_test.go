package tuning

import (
	"context"
	"errors"
	"testing"
	"time"

	"FinTune/internal/domain/models"
)

func newTestOrchestrator(pred *fakePredictor, hyper *memHyperparamStore, store *memModelStore, excq *ExceptionQueue) *Orchestrator {
	return NewOrchestrator(
		pred,
		hyper,
		store,
		NewGovernor(GovernorConfig{}),
		NewProgressBoard(),
		excq,
		nil,
		nopMetrics{},
		testLogger(),
		time.Minute,
	)
}

func testGrid(n int) []models.ModelConfig {
	grid := make([]models.ModelConfig, n)
	for i := range grid {
		cfg := testConfig()
		cfg.Seed = int64(i + 1)
		grid[i] = cfg
	}
	return grid
}

func TestTuneInstrumentSelectsAndPersists(t *testing.T) {
	pred := &fakePredictor{}
	hyper := newMemHyperparamStore()
	store := newMemModelStore()
	excq := NewExceptionQueue()
	o := newTestOrchestrator(pred, hyper, store, excq)

	grid := testGrid(3)
	series := makeTrendSeries("AAPL", 120)

	cfg, err := o.TuneInstrument(context.Background(), "AAPL", grid, series)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected a winning configuration")
	}
	// identical evaluations tie-break on submission order
	if cfg.Key() != grid[0].Key() {
		t.Fatalf("winner %s, want grid[0] %s", cfg.Key(), grid[0].Key())
	}

	p, _ := o.board.Get("AAPL")
	if p.Status != models.StatusDone {
		t.Fatalf("status %s, want done", p.Status)
	}
	if p.TestedConfigs != 3 {
		t.Fatalf("tested %d, want 3", p.TestedConfigs)
	}
	if excq.Len() != 0 {
		t.Fatalf("unexpected exceptions: %d", excq.Len())
	}

	saved, _ := hyper.Load(context.Background(), "AAPL")
	if saved == nil || saved.Key() != cfg.Key() {
		t.Fatal("winning hyperparameters not persisted")
	}
	if store.count() != 1 {
		t.Fatalf("model artifacts %d, want 1", store.count())
	}
	if hyper.auditRows != 3 {
		t.Fatalf("audit rows %d, want one per evaluated config", hyper.auditRows)
	}
}

func TestTuneInstrumentAllConfigurationsFailed(t *testing.T) {
	pred := &fakePredictor{trainErr: errors.New("cuda out of memory")}
	hyper := newMemHyperparamStore()
	store := newMemModelStore()
	excq := NewExceptionQueue()
	o := newTestOrchestrator(pred, hyper, store, excq)

	grid := testGrid(2)
	series := makeTrendSeries("FAIL", 120)

	cfg, err := o.TuneInstrument(context.Background(), "FAIL", grid, series)
	if !errors.Is(err, models.ErrAllConfigurationsFailed) {
		t.Fatalf("expected ErrAllConfigurationsFailed, got %v", err)
	}
	if cfg != nil {
		t.Fatal("no configuration should be returned")
	}
	if excq.Len() != 2 {
		t.Fatalf("exceptions %d, want 2", excq.Len())
	}
	p, _ := o.board.Get("FAIL")
	if p.Status != models.StatusFailed {
		t.Fatalf("status %s, want failed", p.Status)
	}
	if p.TestedConfigs != 2 {
		t.Fatalf("tested %d, want 2 (failures still resolve)", p.TestedConfigs)
	}
	if store.count() != 0 {
		t.Fatal("no model should be persisted")
	}
	if saved, _ := hyper.Load(context.Background(), "FAIL"); saved != nil {
		t.Fatal("no hyperparameters should be persisted")
	}
}

func TestTuneInstrumentPartialFailuresIsolated(t *testing.T) {
	pred := &fakePredictor{}
	hyper := newMemHyperparamStore()
	store := newMemModelStore()
	excq := NewExceptionQueue()
	o := newTestOrchestrator(pred, hyper, store, excq)

	bad := testConfig()
	bad.WindowSize = 500 // longer than the series
	grid := []models.ModelConfig{bad, testConfig()}
	series := makeTrendSeries("MIX", 120)

	cfg, err := o.TuneInstrument(context.Background(), "MIX", grid, series)
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	if cfg == nil || cfg.Key() != grid[1].Key() {
		t.Fatal("surviving configuration must win")
	}
	if excq.Len() != 1 {
		t.Fatalf("exceptions %d, want 1", excq.Len())
	}
	entry := excq.Snapshot()[0]
	if entry.Symbol != "MIX" || entry.Config == nil {
		t.Fatalf("exception entry incomplete: %+v", entry)
	}
}

func TestTuneInstrumentModelExistsFastPath(t *testing.T) {
	pred := &fakePredictor{}
	hyper := newMemHyperparamStore()
	store := newMemModelStore()
	o := newTestOrchestrator(pred, hyper, store, NewExceptionQueue())

	persisted := testConfig()
	hyper.configs["DONE"] = persisted
	store.models["DONE"] = &models.TrainedModel{ConfigKey: persisted.Key(), Arch: "fake"}

	cfg, err := o.TuneInstrument(context.Background(), "DONE", testGrid(3), makeTrendSeries("DONE", 120))
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	if cfg == nil || cfg.Key() != persisted.Key() {
		t.Fatal("fast path must return the persisted configuration")
	}
	if pred.trainCalls.Load() != 0 {
		t.Fatal("fast path must not train")
	}
}

func TestTuneInstrumentHyperparamsFastPath(t *testing.T) {
	pred := &fakePredictor{}
	hyper := newMemHyperparamStore()
	o := newTestOrchestrator(pred, hyper, newMemModelStore(), NewExceptionQueue())

	persisted := testConfig()
	hyper.configs["HP"] = persisted

	cfg, err := o.TuneInstrument(context.Background(), "HP", testGrid(3), makeTrendSeries("HP", 120))
	if err != nil {
		t.Fatalf("tune: %v", err)
	}
	if cfg == nil || cfg.Key() != persisted.Key() {
		t.Fatal("hyperparameter fast path must return the persisted configuration")
	}
	if pred.trainCalls.Load() != 0 {
		t.Fatal("fast path must not train")
	}
}

func TestTuneInstrumentLockHeldElsewhere(t *testing.T) {
	pred := &fakePredictor{}
	hyper := newMemHyperparamStore()
	hyper.lockRefused = true
	o := newTestOrchestrator(pred, hyper, newMemModelStore(), NewExceptionQueue())

	cfg, err := o.TuneInstrument(context.Background(), "LOCKED", testGrid(2), makeTrendSeries("LOCKED", 120))
	if !errors.Is(err, models.ErrTuningLocked) {
		t.Fatalf("expected ErrTuningLocked, got %v", err)
	}
	if cfg != nil {
		t.Fatal("locked symbol must not produce a configuration")
	}
	if pred.trainCalls.Load() != 0 {
		t.Fatal("locked symbol must not be evaluated")
	}
}

func TestFailureKindDistinguishesPrediction(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{models.NewConfigurationError("bad axis"), "configuration"},
		{&models.InsufficientDataError{Symbol: "X"}, "insufficient_data"},
		{&models.TrainingFailure{Err: errors.New("fit diverged")}, "training"},
		{&models.PredictionFailure{Err: errors.New("inference timeout")}, "prediction"},
		{&models.PersistenceFailure{Op: "model", Err: errors.New("disk full")}, "persistence"},
		{errors.New("anything else"), "other"},
	}
	for _, tc := range cases {
		if got := failureKind(tc.err); got != tc.kind {
			t.Fatalf("failureKind(%v) = %s, want %s", tc.err, got, tc.kind)
		}
	}
}

func TestTuneInstrumentEmptyGrid(t *testing.T) {
	o := newTestOrchestrator(&fakePredictor{}, newMemHyperparamStore(), newMemModelStore(), NewExceptionQueue())
	_, err := o.TuneInstrument(context.Background(), "EMPTY", nil, makeTrendSeries("EMPTY", 120))
	var ce *models.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestTuneInstrumentUnlocksAfterRun(t *testing.T) {
	hyper := newMemHyperparamStore()
	o := newTestOrchestrator(&fakePredictor{}, hyper, newMemModelStore(), NewExceptionQueue())

	if _, err := o.TuneInstrument(context.Background(), "UNLOCK", testGrid(1), makeTrendSeries("UNLOCK", 120)); err != nil {
		t.Fatalf("tune: %v", err)
	}
	hyper.mu.Lock()
	locked := hyper.locks["UNLOCK"]
	hyper.mu.Unlock()
	if locked {
		t.Fatal("advisory lock must be released after the run")
	}
}
