package handlers

import (
	"sync"

	"shoplens/analytics"
	"shoplens/config"
	"shoplens/database"
	"shoplens/repository"
)

// The engine components are stateless apart from the model registry, so one
// shared set serves all requests.
var (
	engineOnce sync.Once

	salesRepo    repository.SalesReader
	insightStore repository.InsightStore
	forecaster   *analytics.DemandForecaster
	inventory    *analytics.InventoryOptimizer
	pricing      *analytics.PriceElasticityAnalyzer
	segmenter    *analytics.CustomerSegmenter
	aggregator   *analytics.InsightAggregator
)

func initEngine() {
	engineOnce.Do(func() {
		pool := database.GetDB()
		salesRepo = repository.NewSalesRepository(pool)
		insightStore = repository.NewInsightStore(pool)

		registry := analytics.NewModelRegistry(config.AppConfig.ModelDir)
		forecaster = analytics.NewDemandForecaster(salesRepo, registry)
		inventory = analytics.NewInventoryOptimizer(salesRepo)
		pricing = analytics.NewPriceElasticityAnalyzer(salesRepo)
		segmenter = analytics.NewCustomerSegmenter(salesRepo)
		aggregator = analytics.NewInsightAggregator(salesRepo, insightStore, forecaster, inventory, pricing, segmenter)
	})
}
