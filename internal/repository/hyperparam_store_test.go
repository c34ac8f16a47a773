package repository

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"FinTune/internal/domain/models"
	"FinTune/pkg/cache"
)

// memCache implements cache.Service over a plain map.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (m *memCache) TryLock(ctx context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.data[key]; held {
		return false, nil
	}
	m.data[key] = []byte("locked")
	return true, nil
}

func (m *memCache) Unlock(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.data[key]; !held {
		return cache.ErrCacheMiss
	}
	delete(m.data, key)
	return nil
}

func (m *memCache) Close() error { return nil }

func hyperTestConfig() models.ModelConfig {
	return models.ModelConfig{
		WindowSize:   20,
		HiddenUnits:  32,
		Dropout:      0.1,
		LearningRate: 0.01,
		Optimizer:    "adam",
		Layers:       1,
		BatchSize:    32,
		Horizon:      3,
		Features:     []string{"close"},
		SwingType:    models.SwingIntraday,
		CVMode:       models.CVSingle,
		Splits:       5,
		EmbargoBars:  2,
		Seed:         7,
	}
}

func TestHyperparamStoreLoadMissing(t *testing.T) {
	s := NewRedisHyperparamStore(newMemCache(), nil)
	cfg, err := s.Load(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != nil {
		t.Fatal("missing record must load as nil, nil")
	}
}

func TestHyperparamStoreRoundTrip(t *testing.T) {
	s := NewRedisHyperparamStore(newMemCache(), nil)
	ctx := context.Background()
	cfg := hyperTestConfig()

	if err := s.Save(ctx, "AAPL", cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "AAPL")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Key() != cfg.Key() {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestHyperparamStoreAdvisoryLock(t *testing.T) {
	s := NewRedisHyperparamStore(newMemCache(), nil)
	ctx := context.Background()

	ok, err := s.TryLock(ctx, "AAPL", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	ok, err = s.TryLock(ctx, "AAPL", time.Minute)
	if err != nil || ok {
		t.Fatalf("second lock must be refused: ok=%v err=%v", ok, err)
	}
	if err := s.Unlock(ctx, "AAPL"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	ok, err = s.TryLock(ctx, "AAPL", time.Minute)
	if err != nil || !ok {
		t.Fatalf("relock after unlock: ok=%v err=%v", ok, err)
	}
}

func TestHyperparamStoreUnlockIdempotent(t *testing.T) {
	s := NewRedisHyperparamStore(newMemCache(), nil)
	if err := s.Unlock(context.Background(), "NEVER"); err != nil {
		t.Fatalf("unlocking an unheld lock must be a no-op, got %v", err)
	}
}

func TestHyperparamStoreSaveMetricsWithoutAudit(t *testing.T) {
	s := NewRedisHyperparamStore(newMemCache(), nil)
	err := s.SaveMetrics(context.Background(), "AAPL", hyperTestConfig(), 0.01, models.TradingMetrics{}, 1.2)
	if err != nil {
		t.Fatalf("nil audit must be a no-op, got %v", err)
	}
}
