package tuning

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"FinTune/internal/domain/models"
	applogger "FinTune/pkg/logger"
)

func testLogger() *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

// makeTrendSeries builds a steadily rising close series so an upward
// prediction always wins its trade.
func makeTrendSeries(symbol string, n int) models.BarSeries {
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		bars[i] = models.Bar{
			Time:   time.Unix(int64(i)*60, 0),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000,
			VWAP:   price,
		}
		price *= 1.01
	}
	return models.BarSeries{Symbol: symbol, Bars: bars}
}

func testConfig() models.ModelConfig {
	return models.ModelConfig{
		WindowSize:   10,
		HiddenUnits:  16,
		Dropout:      0.1,
		LearningRate: 0.01,
		Optimizer:    "adam",
		Layers:       1,
		BatchSize:    16,
		Horizon:      2,
		Features:     []string{"close"},
		SwingType:    models.SwingIntraday,
		CVMode:       models.CVSingle,
		Splits:       3,
		EmbargoBars:  2,
		Seed:         1,
		Business:     models.BusinessParams{ProfitFactorCap: 4, DrawdownGamma: 1.5},
	}
}

// fakePredictor is a deterministic in-memory backend for pipeline tests.
type fakePredictor struct {
	trainErr   error
	predictErr error
	// predictFn overrides the default bullish prediction.
	predictFn func(window models.BarSeries, cfg models.ModelConfig) (float64, error)

	trainCalls   atomic.Int64
	predictCalls atomic.Int64
	releaseCalls atomic.Int64
}

func (f *fakePredictor) Train(ctx context.Context, series models.BarSeries, cfg models.ModelConfig) (*models.TrainedModel, *models.ScalerSet, error) {
	f.trainCalls.Add(1)
	if f.trainErr != nil {
		return nil, nil, f.trainErr
	}
	key := cfg.Key()
	return &models.TrainedModel{ConfigKey: key, Arch: "fake"},
		&models.ScalerSet{Features: map[string]models.Scaler{}, Label: models.Scaler{Min: 0, Max: 1}, OwnerKey: key},
		nil
}

func (f *fakePredictor) PredictNext(ctx context.Context, window models.BarSeries, cfg models.ModelConfig, m *models.TrainedModel, sc *models.ScalerSet) (float64, error) {
	f.predictCalls.Add(1)
	if f.predictErr != nil {
		return 0, f.predictErr
	}
	if f.predictFn != nil {
		return f.predictFn(window, cfg)
	}
	return window.Close(window.Len()-1) * 1.05, nil
}

func (f *fakePredictor) Release() {
	f.releaseCalls.Add(1)
}

// memSeriesProvider serves fixed in-memory series.
type memSeriesProvider struct {
	series map[string]models.BarSeries
	err    error
}

func (p *memSeriesProvider) GetBarSeries(ctx context.Context, symbol string) (models.BarSeries, error) {
	if p.err != nil {
		return models.BarSeries{}, p.err
	}
	return p.series[symbol], nil
}

// memHyperparamStore is an in-memory HyperparamStore with call counters.
type memHyperparamStore struct {
	mu          sync.Mutex
	configs     map[string]models.ModelConfig
	locks       map[string]bool
	auditRows   int
	saveErr     error
	lockRefused bool
}

func newMemHyperparamStore() *memHyperparamStore {
	return &memHyperparamStore{
		configs: make(map[string]models.ModelConfig),
		locks:   make(map[string]bool),
	}
}

func (s *memHyperparamStore) Load(ctx context.Context, symbol string) (*models.ModelConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[symbol]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (s *memHyperparamStore) Save(ctx context.Context, symbol string, cfg models.ModelConfig) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[symbol] = cfg
	return nil
}

func (s *memHyperparamStore) SaveMetrics(ctx context.Context, symbol string, cfg models.ModelConfig, meanMSE float64, m models.TradingMetrics, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditRows++
	return nil
}

func (s *memHyperparamStore) TryLock(ctx context.Context, symbol string, ttl time.Duration) (bool, error) {
	if s.lockRefused {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[symbol] {
		return false, nil
	}
	s.locks[symbol] = true
	return true, nil
}

func (s *memHyperparamStore) Unlock(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, symbol)
	return nil
}

// memModelStore is an in-memory ModelStore.
type memModelStore struct {
	mu     sync.Mutex
	models map[string]*models.TrainedModel
}

func newMemModelStore() *memModelStore {
	return &memModelStore{models: make(map[string]*models.TrainedModel)}
}

func (s *memModelStore) Exists(ctx context.Context, symbol string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.models[symbol]
	return ok, nil
}

func (s *memModelStore) Save(ctx context.Context, symbol string, m *models.TrainedModel, cfg models.ModelConfig, sc *models.ScalerSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[symbol] = m
	return nil
}

func (s *memModelStore) Load(ctx context.Context, symbol string) (*models.TrainedModel, *models.ScalerSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.models[symbol]
	return m, nil, nil
}

func (s *memModelStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.models)
}

// nopMetrics satisfies repository.Metrics.
type nopMetrics struct{}

func (nopMetrics) RecordConfigEvaluated(string)      {}
func (nopMetrics) RecordConfigFailed(string, string) {}
func (nopMetrics) RecordBestScore(string, float64)   {}
func (nopMetrics) RecordEvalLatency(float64)         {}
func (nopMetrics) RecordError(string)                {}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}
