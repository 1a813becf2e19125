//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"worldinfo/internal"
	"worldinfo/internal/controllers"
	"worldinfo/internal/fetch"
	"worldinfo/internal/history"
	"worldinfo/internal/providers"
	"worldinfo/internal/services"
	"worldinfo/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		services.NewTrackerService,
		fetch.NewClient,
		history.NewZstdCompressor,
		history.NewFileManager,
		history.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
