package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"shoplens/logger"
	"shoplens/models"
	"shoplens/repository"
)

// Inventory model constants: restock lead time, EOQ cost assumptions, and the
// trailing window the optimizer reads.
const (
	inventoryWindowDays = 60
	leadTimeDays        = 7
	holdingCostRate     = 0.2
	orderingCost        = 100.0
	minDailyHistory     = 7
)

// InventoryOptimizer computes reorder point, safety stock, and economic order
// quantity per product from its sales-velocity statistics.
type InventoryOptimizer struct {
	repo repository.SalesReader
	now  func() time.Time
}

// NewInventoryOptimizer wires an optimizer over a sales reader.
func NewInventoryOptimizer(repo repository.SalesReader) *InventoryOptimizer {
	return &InventoryOptimizer{repo: repo, now: time.Now}
}

// Optimize recomputes the product's stocking profile from trailing 60-day
// sales. Data insufficiency and read failures both degrade to the fixed
// default profile rather than erroring.
func (o *InventoryOptimizer) Optimize(ctx context.Context, product *models.Product) models.InventoryProfile {
	today := o.now()
	sales, err := o.repo.ListProductSales(ctx, product.ID, today.AddDate(0, 0, -inventoryWindowDays), today)
	if err != nil {
		logger.Warn("⚠️ [INVENTORY] falling back to default profile",
			zap.String("product", product.ID), zap.Error(err))
		return defaultProfile(product)
	}

	daily := dailyQuantities(sales)
	if len(daily) < minDailyHistory {
		return defaultProfile(product)
	}

	meanDaily := mean(daily)
	stdDaily := sampleStdDev(daily)

	safetyStock := 2 * stdDaily * math.Sqrt(leadTimeDays)
	reorderPoint := meanDaily*leadTimeDays + safetyStock

	var eoq float64
	if product.CostPrice != nil && product.CostPrice.IsPositive() {
		annualDemand := meanDaily * 365
		holdingCost := product.CostPrice.InexactFloat64() * holdingCostRate
		eoq = math.Sqrt(2 * annualDemand * orderingCost / holdingCost)
	} else {
		eoq = meanDaily * 30 // 30-day supply heuristic
	}

	return models.InventoryProfile{
		ProductID:            product.ID,
		ReorderPoint:         atLeastOne(reorderPoint),
		OptimalOrderQuantity: atLeastOne(eoq),
		SafetyStock:          atLeastOne(safetyStock),
		DailyDemandEstimate:  round2(meanDaily),
		Confidence:           inventoryConfidence(len(daily)),
		Source:               models.SourceStatistical,
	}
}

// StockoutForecasts estimates days-until-stockout for the shop's active
// products from trailing 30-day velocity, worst first, capped at ten.
func (o *InventoryOptimizer) StockoutForecasts(ctx context.Context, shopID string) ([]models.StockoutForecast, error) {
	today := o.now()
	products, err := o.repo.ListActiveProducts(ctx, shopID)
	if err != nil {
		return nil, err
	}
	sales, err := o.repo.ListShopItemSales(ctx, shopID, today.AddDate(0, 0, -recentWindowDays), today)
	if err != nil {
		return nil, err
	}

	soldByProduct := make(map[string]float64)
	for _, s := range sales {
		soldByProduct[s.ProductID] += s.Quantity.InexactFloat64()
	}

	forecasts := make([]models.StockoutForecast, 0)
	for _, p := range products {
		sold := soldByProduct[p.ID]
		velocity := sold / float64(recentWindowDays)
		if velocity <= 0 || p.Stock <= 0 {
			continue
		}
		daysLeft := int(float64(p.Stock) / velocity)
		confidence := 60
		if sold > 5 {
			confidence = 80
		}
		forecasts = append(forecasts, models.StockoutForecast{
			ProductID:          p.ID,
			ProductName:        p.Name,
			CurrentStock:       p.Stock,
			DailyVelocity:      round1(velocity),
			DaysRemaining:      daysLeft,
			RestockNeeded:      daysLeft <= leadTimeDays,
			RecommendedReorder: int(math.Max(20, velocity*14)),
			Confidence:         confidence,
		})
	}

	sort.Slice(forecasts, func(i, j int) bool {
		return forecasts[i].DaysRemaining < forecasts[j].DaysRemaining
	})
	if len(forecasts) > 10 {
		forecasts = forecasts[:10]
	}
	return forecasts, nil
}

// dailyQuantities aggregates line items into one summed quantity per calendar
// day, ordered by date.
func dailyQuantities(sales []models.LineItemSale) []float64 {
	byDay := make(map[string]float64)
	var days []string
	for _, s := range sales {
		key := s.Date.Format("2006-01-02")
		if _, ok := byDay[key]; !ok {
			days = append(days, key)
		}
		byDay[key] += s.Quantity.InexactFloat64()
	}
	sort.Strings(days)

	daily := make([]float64, len(days))
	for i, d := range days {
		daily[i] = byDay[d]
	}
	return daily
}

func defaultProfile(product *models.Product) models.InventoryProfile {
	reorder := 5
	if product.MinStockAlert > reorder {
		reorder = product.MinStockAlert
	}
	return models.InventoryProfile{
		ProductID:            product.ID,
		ReorderPoint:         reorder,
		OptimalOrderQuantity: 20,
		SafetyStock:          5,
		DailyDemandEstimate:  1.0,
		Confidence:           30,
		Source:               models.SourceDefault,
	}
}

func inventoryConfidence(dataPoints int) int {
	switch {
	case dataPoints >= 30:
		return 90
	case dataPoints >= 14:
		return 75
	case dataPoints >= 7:
		return 60
	default:
		return 40
	}
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
