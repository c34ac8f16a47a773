package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FinTune/internal/domain/repository"
	"FinTune/internal/tuning"
	"FinTune/pkg/cache"
	pkgch "FinTune/pkg/clickhouse"
	"FinTune/pkg/config"
	xhttp "FinTune/pkg/http"
	applogger "FinTune/pkg/logger"
)

// App encapsulates the entire application lifecycle: the HTTP monitoring
// surface, the tuning run, and graceful teardown of infrastructure clients.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	scheduler  *tuning.Scheduler
	gridFn     tuning.GridFunc
	handler    xhttp.Handler
	httpServer *xhttp.Server
	chClient   *pkgch.Client
	redisCache *cache.RedisCache
	events     repository.EventPublisher
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scheduler *tuning.Scheduler,
	gridFn tuning.GridFunc,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	redisCache *cache.RedisCache,
	events repository.EventPublisher,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		scheduler:  scheduler,
		gridFn:     gridFn,
		handler:    handler,
		chClient:   chClient,
		redisCache: redisCache,
		events:     events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.cfg.Tuning.RunOnStart {
		go func() {
			tuned := a.scheduler.TuneAll(ctx, a.cfg.Tuning.Symbols, a.gridFn)
			a.log.Info("startup tuning run finished", applogger.Int("tuned", tuned))
		}()
		a.log.Info("tuning run started", applogger.Strings("symbols", a.cfg.Tuning.Symbols))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
