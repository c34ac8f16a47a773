//go:build wireinject
// +build wireinject

package di

import (
	"FinTune/pkg/config"
	"FinTune/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideEventPublisher,

		// Repositories
		ProvideSeriesProvider,
		ProvideHyperparamStore,
		ProvideModelStore,

		// Model backend
		ProvidePredictor,

		// Tuning pipeline
		ProvideGovernor,
		ProvideProgressBoard,
		ProvideExceptionQueue,
		ProvideOrchestrator,
		ProvideScheduler,
		ProvideAxes,
		ProvideGridFunc,

		// HTTP surface
		ProvideTuningHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
