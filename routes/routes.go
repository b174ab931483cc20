package routes

import (
	"shoplens/handlers"
	"shoplens/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// --- Analytics Routes (shop-scoped by the JWT) ---
	analytics := api.Group("/analytics", middleware.Authenticate)

	analytics.Get("/dashboard", handlers.HandleGetDashboard)

	analytics.Get("/forecast", handlers.HandleGetSalesForecast)
	analytics.Post("/forecast/retrain", handlers.HandleRetrainModel)

	analytics.Get("/inventory", handlers.HandleGetInventoryProfiles)
	analytics.Get("/inventory/:productId", handlers.HandleGetInventoryProfile)

	analytics.Get("/pricing", handlers.HandleGetPriceRecommendations)

	analytics.Get("/segments", handlers.HandleGetCustomerSegments)

	analytics.Get("/insights", handlers.HandleGetInsights)
	analytics.Post("/insights/regenerate", handlers.HandleRegenerateInsights)
	analytics.Put("/insights/:insightId/read", handlers.HandleMarkInsightRead)

	analytics.Post("/assistant", handlers.HandleAssistant)

	// --- Health Check ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
