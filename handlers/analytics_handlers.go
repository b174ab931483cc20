package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"shoplens/logger"
	"shoplens/middleware"
	"shoplens/models"
	"shoplens/repository"
	"shoplens/utils"
)

// HandleGetSalesForecast returns the next-days sales forecast for the
// authenticated shop. Query param "days" controls the horizon (default 7,
// max 30).
func HandleGetSalesForecast(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	days := c.QueryInt("days", 7)
	if days <= 0 {
		days = 7
	}
	if days > 30 {
		days = 30
	}

	forecast := forecaster.Predict(c.Context(), shopID, days)
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"forecast":     forecast,
			"model_active": forecaster.ModelActive(shopID),
		},
	})
}

// HandleRetrainModel forces a retrain of the shop's demand model.
func HandleRetrainModel(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	trained, err := forecaster.Retrain(c.Context(), shopID)
	if err != nil {
		logger.Error("❌ [FORECAST] retrain failed", zap.String("shop", shopID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to retrain model"})
	}
	if !trained {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Not enough sales history to train a model yet. Forecasts will use the statistical method.",
			"data":    fiber.Map{"model_active": false},
		})
	}

	logger.Info("✅ [FORECAST] model retrained", zap.String("shop", shopID))
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Model retrained successfully",
		"data":    fiber.Map{"model_active": true},
	})
}

// HandleGetInventoryProfiles recomputes stocking recommendations for every
// active product in the shop.
func HandleGetInventoryProfiles(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	products, err := salesRepo.ListActiveProducts(c.Context(), shopID)
	if err != nil {
		logger.Error("❌ [INVENTORY] failed to list products", zap.String("shop", shopID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to fetch products"})
	}

	profiles := make([]models.InventoryProfile, 0, len(products))
	for i := range products {
		profiles = append(profiles, inventory.Optimize(c.Context(), &products[i]))
	}

	stockouts, err := inventory.StockoutForecasts(c.Context(), shopID)
	if err != nil {
		logger.Warn("⚠️ [INVENTORY] stockout forecast unavailable", zap.String("shop", shopID), zap.Error(err))
		stockouts = []models.StockoutForecast{}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"profiles":  profiles,
			"stockouts": stockouts,
		},
	})
}

// HandleGetInventoryProfile recomputes the stocking profile for one product.
func HandleGetInventoryProfile(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)
	productID := c.Params("productId")

	product, err := salesRepo.GetProduct(c.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Product not found"})
		}
		logger.Error("❌ [INVENTORY] failed to fetch product", zap.String("product", productID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to fetch product"})
	}
	if product.ShopID != shopID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Product not found"})
	}

	profile := inventory.Optimize(c.Context(), product)
	return c.JSON(fiber.Map{"success": true, "data": profile})
}

// HandleGetPriceRecommendations returns the shop's top price moves by
// expected impact.
func HandleGetPriceRecommendations(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	recommendations, err := pricing.AnalyzeShop(c.Context(), shopID)
	if err != nil {
		logger.Error("❌ [PRICING] analysis failed", zap.String("shop", shopID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to analyze pricing"})
	}

	return c.JSON(fiber.Map{"success": true, "data": recommendations})
}

// HandleGetCustomerSegments returns the RFM-clustered customer segments for
// the shop.
func HandleGetCustomerSegments(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	segments := segmenter.Segment(c.Context(), shopID)
	return c.JSON(fiber.Map{"success": true, "data": segments})
}

// HandleGetInsights returns one page of the shop's active insights, newest
// first.
func HandleGetInsights(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", 10)

	insights, total, err := insightStore.List(c.Context(), shopID, page, pageSize)
	if err != nil {
		logger.Error("❌ [INSIGHTS] failed to list insights", zap.String("shop", shopID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to fetch insights"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       insights,
		"pagination": utils.CreatePagination(total, page, pageSize),
	})
}

// HandleRegenerateInsights recomputes the shop's insights and atomically
// replaces the stored set.
func HandleRegenerateInsights(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	insights, err := aggregator.Regenerate(c.Context(), shopID)
	if err != nil {
		logger.Error("❌ [INSIGHTS] regeneration failed", zap.String("shop", shopID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to regenerate insights"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Insights regenerated",
		"data":    insights,
	})
}

// HandleMarkInsightRead marks one insight as read for the shop.
func HandleMarkInsightRead(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)
	insightID := c.Params("insightId")

	if err := insightStore.MarkRead(c.Context(), shopID, insightID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Insight not found"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Insight marked as read"})
}

// HandleGetDashboard runs every analyzer for the shop and returns the full
// structured result set in one response.
func HandleGetDashboard(c *fiber.Ctx) error {
	initEngine()
	shopID := middleware.ShopID(c)

	dashboard := aggregator.Dashboard(c.Context(), shopID)
	return c.JSON(fiber.Map{"success": true, "data": dashboard})
}
