package di

import (
	"context"
	"fmt"
	"time"

	"FinTune/internal/domain/models"
	"FinTune/internal/domain/repository"
	"FinTune/internal/domain/service"
	"FinTune/internal/handler/api"
	internalrepo "FinTune/internal/repository"
	"FinTune/internal/services/predictor"
	"FinTune/internal/tuning"
	"FinTune/pkg/cache"
	pkgch "FinTune/pkg/clickhouse"
	"FinTune/pkg/config"
	xhttp "FinTune/pkg/http"
	pkgkafka "FinTune/pkg/kafka"
	applogger "FinTune/pkg/logger"
	"FinTune/pkg/metrics"
	"FinTune/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lcfg := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lcfg.Level == "" {
		lcfg.Level = "info"
	}
	if lcfg.Format == "" {
		lcfg.Format = "console"
	}
	if lcfg.Output == "" {
		lcfg.Output = "stdout"
	}
	return applogger.New(lcfg)
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS fintune",
		`CREATE TABLE IF NOT EXISTS fintune.bars (
            symbol String, t DateTime, o Float64, h Float64, l Float64, c Float64,
            v Float64, vw Float64, n Int64
        ) ENGINE=MergeTree ORDER BY (symbol, t)`,
		`CREATE TABLE IF NOT EXISTS fintune.tuning_evaluations (
            ts DateTime, symbol String, config_key String, config String,
            mean_mse Float64, score Float64, num_trades Int64, total_profit Float64,
            profit_factor Float64, win_rate Float64, expectancy Float64, max_drawdown_pct Float64
        ) ENGINE=MergeTree ORDER BY (symbol, ts)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisCache creates the Redis client used for hyperparameter records
// and the advisory tuning locks.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	return cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("fintune"),
	)
}

// ProvideEventPublisher creates the Kafka lifecycle event publisher, or nil
// when Kafka is disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topics.Progress, cfg.Kafka.Topics.Exceptions), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSeriesProvider creates the ClickHouse bar series provider.
func ProvideSeriesProvider(chClient *pkgch.Client, l *applogger.Logger) repository.SeriesProvider {
	return internalrepo.NewCHBarStore(chClient, l)
}

// ProvideHyperparamStore creates the Redis hyperparameter store with the
// ClickHouse evaluation audit behind it.
func ProvideHyperparamStore(c *cache.RedisCache, chClient *pkgch.Client) repository.HyperparamStore {
	return internalrepo.NewRedisHyperparamStore(c, internalrepo.NewCHAuditLog(chClient))
}

// ProvideModelStore creates the file-backed model artifact store.
func ProvideModelStore(cfg *config.Config) (repository.ModelStore, error) {
	return internalrepo.NewFileModelStore(cfg.Predictor.ModelDir)
}

// ProvidePredictor selects the model backend from configuration.
func ProvidePredictor(cfg *config.Config, l *applogger.Logger) service.Predictor {
	if cfg.Predictor.Backend == "remote" {
		return predictor.NewRemote(cfg.Predictor.ServiceURL, cfg.Predictor.Timeout, l)
	}
	return predictor.NewNative()
}

// ProvideGovernor creates the concurrency and memory governor.
func ProvideGovernor(cfg *config.Config) *tuning.Governor {
	return tuning.NewGovernor(tuning.GovernorConfig{
		CPUReserve:        cfg.Governor.CPUReserve,
		GPU:               cfg.Governor.GPU,
		HardCap:           cfg.Governor.HardCap,
		GPUCap:            cfg.Governor.GPUCap,
		MemoryBudgetBytes: cfg.Governor.MemoryBudgetBytes,
		MemoryFraction:    cfg.Governor.MemoryFraction,
		PollInterval:      cfg.Governor.PollInterval,
	})
}

// ProvideProgressBoard creates the shared progress board.
func ProvideProgressBoard() *tuning.ProgressBoard {
	return tuning.NewProgressBoard()
}

// ProvideExceptionQueue creates the global exception report.
func ProvideExceptionQueue() *tuning.ExceptionQueue {
	return tuning.NewExceptionQueue()
}

// ProvideOrchestrator assembles the per-instrument tuning pipeline.
func ProvideOrchestrator(
	pred service.Predictor,
	hyper repository.HyperparamStore,
	modelStore repository.ModelStore,
	gov *tuning.Governor,
	board *tuning.ProgressBoard,
	excq *tuning.ExceptionQueue,
	events repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *tuning.Orchestrator {
	return tuning.NewOrchestrator(pred, hyper, modelStore, gov, board, excq, events, m, l, cfg.Tuning.LockTTL)
}

// ProvideScheduler creates the multi-instrument scheduler.
func ProvideScheduler(
	orch *tuning.Orchestrator,
	series repository.SeriesProvider,
	pred service.Predictor,
	l *applogger.Logger,
	cfg *config.Config,
) *tuning.Scheduler {
	return tuning.NewScheduler(orch, series, pred, l, cfg.Tuning.SymbolParallelism)
}

// ProvideAxes loads the grid axes file once at startup.
func ProvideAxes(cfg *config.Config) (tuning.Axes, error) {
	axes, err := tuning.LoadAxes(cfg.Tuning.GridFile)
	if err != nil {
		return tuning.Axes{}, fmt.Errorf("load grid axes: %w", err)
	}
	return axes, nil
}

// ProvideGridFunc fixes the default grid strategy: a bounded random sample
// when sample_size is set, the full sweep otherwise.
func ProvideGridFunc(cfg *config.Config, axes tuning.Axes) tuning.GridFunc {
	sampleSize := cfg.Tuning.SampleSize
	sampleSeed := cfg.Tuning.SampleSeed
	return func(string) ([]models.ModelConfig, error) {
		if sampleSize > 0 {
			return tuning.Sample(axes, sampleSize, sampleSeed)
		}
		return tuning.Cartesian(axes)
	}
}

// ProvideTuningHandler creates the HTTP API handler. The raw axes let a
// triggered run substitute a sampled grid for the configured one.
func ProvideTuningHandler(
	l *applogger.Logger,
	board *tuning.ProgressBoard,
	excq *tuning.ExceptionQueue,
	sched *tuning.Scheduler,
	gridFn tuning.GridFunc,
	axes tuning.Axes,
) xhttp.Handler {
	return api.NewTuningEchoHandler(l, board, excq, sched, gridFn, axes)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	sched *tuning.Scheduler,
	gridFn tuning.GridFunc,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	redisCache *cache.RedisCache,
	events repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, sched, gridFn, handler, chClient, redisCache, events)
}
