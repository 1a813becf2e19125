package internal

import (
	"net/http"
	"worldinfo/internal/controllers"
	"worldinfo/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/snapshots", http.HandlerFunc(apiController.IngestSnapshots))
	routers.Post("/fetch", http.HandlerFunc(apiController.Fetch))
	routers.Get("/worlds", http.HandlerFunc(apiController.GetWorlds))
	routers.Get("/worlds.csv", http.HandlerFunc(apiController.GetWorldsCSV))
	routers.Get("/worlds/search", http.HandlerFunc(apiController.SearchWorlds))
	routers.Get("/tags", http.HandlerFunc(apiController.GetTags))
	routers.Get("/history", http.HandlerFunc(apiController.GetHistory))
	routers.Get("/entities", http.HandlerFunc(apiController.GetEntities))
	routers.Get("/chart", http.HandlerFunc(apiController.GetChart))
	routers.Get("/dashboard", http.HandlerFunc(apiController.GetDashboard))
	return routers
}
