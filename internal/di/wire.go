//go:build wireinject
// +build wireinject

package di

import (
	"VitaPull/pkg/config"
	"VitaPull/pkg/server"

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
        ProvideKafkaProducer,
        ProvideKafkaConsumer,

        // Repositories
        ProvideRecordStore,
        ProvideRecordPublisher,
        ProvideAlertPublisher,
        ProvideVendorSource,

        // Use cases
        ProvideRecordProcessor,
        ProvideSyncCollector,
        ProvideInsightPipeline,
        ProvideKafkaSyncHandler,

        // HTTP + background workers
        ProvideReportCache,
        ProvideHTTPHandlers,
        ProvideRecomputeQueue,

        // Application server
        ProvideApp,
    )
    return &server.App{}, nil
}
