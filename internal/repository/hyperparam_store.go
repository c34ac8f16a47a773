package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinTune/internal/domain/models"
	"FinTune/pkg/cache"
)

const (
	hyperparamKeyPrefix = "hyperparams:"
	tuneLockKeyPrefix   = "tune_lock:"
)

// RedisHyperparamStore keeps the winning configuration per instrument in
// Redis and delegates the append-only evaluation audit to ClickHouse. The
// per-symbol tuning lock is a plain SETNX advisory lock with TTL.
type RedisHyperparamStore struct {
	cache cache.Service
	audit *CHAuditLog
}

func NewRedisHyperparamStore(c cache.Service, audit *CHAuditLog) *RedisHyperparamStore {
	return &RedisHyperparamStore{cache: c, audit: audit}
}

func (s *RedisHyperparamStore) Load(ctx context.Context, symbol string) (*models.ModelConfig, error) {
	var cfg models.ModelConfig
	err := s.cache.Get(ctx, hyperparamKeyPrefix+symbol, &cfg)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load hyperparams: %w", err)
	}
	return &cfg, nil
}

func (s *RedisHyperparamStore) Save(ctx context.Context, symbol string, cfg models.ModelConfig) error {
	if err := s.cache.Set(ctx, hyperparamKeyPrefix+symbol, cfg, 0); err != nil {
		return fmt.Errorf("save hyperparams: %w", err)
	}
	return nil
}

func (s *RedisHyperparamStore) SaveMetrics(ctx context.Context, symbol string, cfg models.ModelConfig, meanMSE float64, m models.TradingMetrics, score float64) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.InsertEvaluation(ctx, symbol, cfg, meanMSE, m, score)
}

func (s *RedisHyperparamStore) TryLock(ctx context.Context, symbol string, ttl time.Duration) (bool, error) {
	return s.cache.TryLock(ctx, tuneLockKeyPrefix+symbol, ttl)
}

func (s *RedisHyperparamStore) Unlock(ctx context.Context, symbol string) error {
	err := s.cache.Unlock(ctx, tuneLockKeyPrefix+symbol)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}
