//go:build wireinject
// +build wireinject

package di

import (
	"FinCast/pkg/config"
	"FinCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideHorizons,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideCandleSource,
		ProvideForecastStore,
		ProvideArtifactStore,
		ProvidePublisher,
		ProvideTrainer,

		// Use cases
		ProvideFeatureBuilder,
		ProvideModelLifecycle,
		ProvideComposer,
		ProvideScheduler,
		ProvideForecastQuery,

		// Handlers
		ProvideHTTPHandler,
		ProvideHub,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
