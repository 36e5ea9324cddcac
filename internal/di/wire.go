//go:build wireinject
// +build wireinject

package di

import (
	"BotBourse/pkg/config"
	"BotBourse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideUniverse,

		// Stores
		ProvideJSONStore,
		ProvidePriceStore,
		ProvideResultStore,
		ProvideResultReader,
		ProvideArtifactStore,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvidePublisher,
		ProvideClickHouseClient,
		ProvideTrainingSink,
		ProvideCache,
		ProvideFetcher,

		// Domain services
		ProvideComputer,
		ProvidePredictors,
		ProvideRiskScorer,
		ProvideDetector,
		ProvideDatasetBuilder,

		// Use cases
		ProvideEngine,
		ProvideDatasetUseCase,

		// API and application
		ProvideSignalsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
