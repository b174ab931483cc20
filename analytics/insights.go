package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shoplens/logger"
	"shoplens/models"
	"shoplens/repository"
)

// Rule-check thresholds, taken together with the analyzer constants above.
const (
	growthThreshold     = 1.1
	declineThreshold    = 0.9
	performanceDailyAvg = 2000.0
	lowStockLevel       = 5
	overstockLevel      = 50
	overstockMinStock   = 20
	lowMarginAlertPct   = 15.0
	highMarginAlertPct  = 60.0
	highTransactionAvg  = 500.0
	loyaltyRepeatRate   = 1.5
	slowMoverMaxUnits   = 2.0
	maxNamesPerInsight  = 3
	analysisBudget      = 10 * time.Second
)

// InsightAggregator orchestrates the analyzers and rule-based checks for a
// shop, ranks the findings, and atomically replaces the persisted insight
// set on regeneration.
type InsightAggregator struct {
	repo       repository.SalesReader
	store      repository.InsightStore
	forecaster *DemandForecaster
	inventory  *InventoryOptimizer
	pricing    *PriceElasticityAnalyzer
	segmenter  *CustomerSegmenter
	now        func() time.Time
}

// NewInsightAggregator wires the aggregator over the shared repository and
// the four analyzers.
func NewInsightAggregator(
	repo repository.SalesReader,
	store repository.InsightStore,
	forecaster *DemandForecaster,
	inventory *InventoryOptimizer,
	pricing *PriceElasticityAnalyzer,
	segmenter *CustomerSegmenter,
) *InsightAggregator {
	return &InsightAggregator{
		repo:       repo,
		store:      store,
		forecaster: forecaster,
		inventory:  inventory,
		pricing:    pricing,
		segmenter:  segmenter,
		now:        time.Now,
	}
}

// Dashboard runs every analyzer for the shop under one wall-clock budget and
// returns the complete, well-typed result set. Individual analyzer failures
// surface as that analyzer's default/low-confidence output, never as a
// missing section.
func (a *InsightAggregator) Dashboard(ctx context.Context, shopID string) models.AnalyticsDashboard {
	ctx, cancel := context.WithTimeout(ctx, analysisBudget)
	defer cancel()

	dash := models.AnalyticsDashboard{
		Forecast:    a.forecaster.Predict(ctx, shopID, defaultHorizon),
		ModelActive: a.forecaster.ModelActive(shopID),
		Segments:    a.segmenter.Segment(ctx, shopID),
		Profit:      a.ProfitSummary(ctx, shopID),
		Insights:    a.Generate(ctx, shopID),
	}

	if stockouts, err := a.inventory.StockoutForecasts(ctx, shopID); err == nil {
		dash.Stockouts = stockouts
	} else {
		logger.Warn("⚠️ [INSIGHTS] stockout forecast unavailable", zap.String("shop", shopID), zap.Error(err))
		dash.Stockouts = []models.StockoutForecast{}
	}
	if pricing, err := a.pricing.AnalyzeShop(ctx, shopID); err == nil {
		dash.Pricing = pricing
	} else {
		logger.Warn("⚠️ [INSIGHTS] pricing analysis unavailable", zap.String("shop", shopID), zap.Error(err))
		dash.Pricing = []models.PriceRecommendation{}
	}
	return dash
}

// Regenerate recomputes the shop's insights and atomically supersedes the
// stored set.
func (a *InsightAggregator) Regenerate(ctx context.Context, shopID string) ([]models.Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, analysisBudget)
	defer cancel()

	insights := a.Generate(ctx, shopID)
	if err := a.store.Replace(ctx, shopID, insights); err != nil {
		return nil, err
	}
	logger.Info("✅ [INSIGHTS] regenerated", zap.String("shop", shopID), zap.Int("count", len(insights)))
	return insights, nil
}

// Generate runs the rule-based checks and returns the ranked, deduplicated
// insight list without persisting it.
func (a *InsightAggregator) Generate(ctx context.Context, shopID string) []models.Insight {
	insights := make([]models.Insight, 0)
	insights = append(insights, a.salesPerformance(ctx, shopID)...)
	insights = append(insights, a.stockLevels(ctx, shopID)...)
	insights = append(insights, a.marginOutliers(ctx, shopID)...)
	insights = append(insights, a.customerBehavior(ctx, shopID)...)
	insights = append(insights, a.productPerformance(ctx, shopID)...)

	insights = dedupeByKind(insights)
	rankInsights(insights)

	now := a.now()
	for i := range insights {
		insights[i].ID = uuid.NewString()
		insights[i].ShopID = shopID
		insights[i].IsActive = true
		insights[i].CreatedAt = now
	}
	return insights
}

// ProfitSummary aggregates trailing 30-day revenue, cost and profit.
func (a *InsightAggregator) ProfitSummary(ctx context.Context, shopID string) models.ProfitSummary {
	today := a.now()
	items, err := a.repo.ListShopItemSales(ctx, shopID, today.AddDate(0, 0, -recentWindowDays), today)
	if err != nil {
		logger.Warn("⚠️ [INSIGHTS] profit summary unavailable", zap.String("shop", shopID), zap.Error(err))
		return models.ProfitSummary{Confidence: 30}
	}

	var revenue, cost float64
	for _, it := range items {
		qty := it.Quantity.InexactFloat64()
		revenue += qty * it.UnitPrice.InexactFloat64()
		if it.CostPrice != nil {
			cost += qty * it.CostPrice.InexactFloat64()
		}
	}

	profit := revenue - cost
	margin := 0.0
	if revenue > 0 {
		margin = profit / revenue * 100
	}
	confidence := 60
	if revenue > 1000 {
		confidence = 90
	}
	return models.ProfitSummary{
		TotalRevenue:   round2(revenue),
		TotalCost:      round2(cost),
		TotalProfit:    round2(profit),
		ProfitMargin:   round1(margin),
		DailyAvgProfit: round2(profit / recentWindowDays),
		Confidence:     confidence,
	}
}

func (a *InsightAggregator) salesPerformance(ctx context.Context, shopID string) []models.Insight {
	today := a.now()
	daily, err := a.repo.ListDailyTotals(ctx, shopID, today.AddDate(0, 0, -recentWindowDays), today)
	if err != nil || len(daily) == 0 {
		return nil
	}

	var total30, total7 float64
	weekAgo := today.AddDate(0, 0, -7)
	for _, d := range daily {
		v := d.Total.InexactFloat64()
		total30 += v
		if !d.Date.Before(weekAgo) {
			total7 += v
		}
	}
	avg30 := total30 / 30
	avg7 := total7 / 7
	if avg30 <= 0 {
		return nil
	}

	var insights []models.Insight
	switch {
	case avg7 > avg30*growthThreshold:
		insights = append(insights, models.Insight{
			Kind:       models.InsightSalesGrowth,
			Title:      "Sales Growth Detected",
			Message:    fmt.Sprintf("Recent sales (%.0f/day) are %.1f%% above your 30-day average. Great momentum!", avg7, (avg7/avg30-1)*100),
			Priority:   models.PriorityHigh,
			Confidence: 90,
		})
	case avg7 < avg30*declineThreshold:
		insights = append(insights, models.Insight{
			Kind:       models.InsightSalesDecline,
			Title:      "Sales Decline Alert",
			Message:    fmt.Sprintf("Recent sales (%.0f/day) are down %.1f%%. Consider promotional campaigns.", avg7, (1-avg7/avg30)*100),
			Priority:   models.PriorityCritical,
			Confidence: 85,
		})
	}

	if avg30 > performanceDailyAvg {
		insights = append(insights, models.Insight{
			Kind:       models.InsightPerformance,
			Title:      "Excellent Performance",
			Message:    fmt.Sprintf("Your daily average of %.0f is excellent. Consider expanding your product range.", avg30),
			Priority:   models.PriorityMedium,
			Confidence: 80,
		})
	}
	return insights
}

func (a *InsightAggregator) stockLevels(ctx context.Context, shopID string) []models.Insight {
	today := a.now()
	products, err := a.repo.ListActiveProducts(ctx, shopID)
	if err != nil || len(products) == 0 {
		return nil
	}

	var lowStock []string
	for _, p := range products {
		if p.Stock <= lowStockLevel {
			lowStock = append(lowStock, p.Name)
		}
	}

	var insights []models.Insight
	if len(lowStock) > 0 {
		insights = append(insights, models.Insight{
			Kind:       models.InsightStockAlert,
			Title:      fmt.Sprintf("%d Products Low on Stock", len(lowStock)),
			Message:    fmt.Sprintf("Products running low: %s", nameList(lowStock)),
			Priority:   models.PriorityCritical,
			Confidence: 100,
		})
	}

	sales, err := a.repo.ListShopItemSales(ctx, shopID, today.AddDate(0, 0, -recentWindowDays), today)
	if err != nil {
		return insights
	}
	soldByProduct := make(map[string]float64)
	for _, s := range sales {
		soldByProduct[s.ProductID] += s.Quantity.InexactFloat64()
	}

	var overstocked []string
	for _, p := range products {
		if p.Stock > overstockLevel && soldByProduct[p.ID] == 0 && p.Stock > overstockMinStock {
			overstocked = append(overstocked, p.Name)
		}
	}
	if len(overstocked) > 0 {
		insights = append(insights, models.Insight{
			Kind:       models.InsightOverstock,
			Title:      "Overstock Alert",
			Message:    fmt.Sprintf("%d products have stock but no sales in 30 days: %s. Consider promotions or price reduction.", len(overstocked), nameList(overstocked)),
			Priority:   models.PriorityMedium,
			Confidence: 90,
		})
	}
	return insights
}

func (a *InsightAggregator) marginOutliers(ctx context.Context, shopID string) []models.Insight {
	products, err := a.repo.ListActiveProducts(ctx, shopID)
	if err != nil {
		return nil
	}

	var lowMargin, highMargin []string
	for _, p := range products {
		if p.CostPrice == nil || p.SalePrice.IsZero() {
			continue
		}
		sale := p.SalePrice.InexactFloat64()
		cost := p.CostPrice.InexactFloat64()
		marginPct := (sale - cost) / sale * 100
		switch {
		case marginPct < lowMarginAlertPct:
			lowMargin = append(lowMargin, p.Name)
		case marginPct > highMarginAlertPct:
			highMargin = append(highMargin, p.Name)
		}
	}

	var insights []models.Insight
	if len(lowMargin) > 0 {
		insights = append(insights, models.Insight{
			Kind:       models.InsightPricingAlert,
			Title:      "Low Margin Products Detected",
			Message:    fmt.Sprintf("%d products have margins below %.0f%%: %s. Consider price adjustments.", len(lowMargin), lowMarginAlertPct, nameList(lowMargin)),
			Priority:   models.PriorityHigh,
			Confidence: 95,
		})
	}
	if len(highMargin) > 0 {
		insights = append(insights, models.Insight{
			Kind:       models.InsightPricingOpportunity,
			Title:      "High Margin Products",
			Message:    fmt.Sprintf("%d products have excellent margins (>%.0f%%): %s.", len(highMargin), highMarginAlertPct, nameList(highMargin)),
			Priority:   models.PriorityLow,
			Confidence: 80,
		})
	}
	return insights
}

func (a *InsightAggregator) customerBehavior(ctx context.Context, shopID string) []models.Insight {
	today := a.now()
	bills, err := a.repo.ListCustomerBills(ctx, shopID, today.AddDate(0, 0, -recentWindowDays), today)
	if err != nil || len(bills) == 0 {
		return nil
	}

	var total float64
	unique := make(map[string]bool)
	for _, b := range bills {
		total += b.Total.InexactFloat64()
		unique[b.CustomerName] = true
	}
	avgTransaction := total / float64(len(bills))

	var insights []models.Insight
	if avgTransaction > highTransactionAvg {
		insights = append(insights, models.Insight{
			Kind:       models.InsightCustomerValue,
			Title:      "High-Value Customers",
			Message:    fmt.Sprintf("Your average transaction value is %.0f. Focus on customer retention strategies.", avgTransaction),
			Priority:   models.PriorityMedium,
			Confidence: 80,
		})
	}

	if n := len(unique); n > 0 {
		repeatRate := float64(len(bills)-n) / float64(n)
		if repeatRate > loyaltyRepeatRate {
			insights = append(insights, models.Insight{
				Kind:       models.InsightCustomerLoyalty,
				Title:      "Strong Customer Loyalty",
				Message:    fmt.Sprintf("Customers are making %.1f repeat purchases on average. Excellent retention!", repeatRate),
				Priority:   models.PriorityLow,
				Confidence: 85,
			})
		}
	}
	return insights
}

func (a *InsightAggregator) productPerformance(ctx context.Context, shopID string) []models.Insight {
	today := a.now()
	sales, err := a.repo.ListShopItemSales(ctx, shopID, today.AddDate(0, 0, -recentWindowDays), today)
	if err != nil || len(sales) == 0 {
		return nil
	}

	sold := make(map[string]float64)
	revenue := make(map[string]float64)
	names := make(map[string]string)
	for _, s := range sales {
		qty := s.Quantity.InexactFloat64()
		sold[s.ProductID] += qty
		revenue[s.ProductID] += qty * s.UnitPrice.InexactFloat64()
		names[s.ProductID] = s.ProductName
	}

	topID := ""
	for id := range sold {
		if topID == "" || sold[id] > sold[topID] {
			topID = id
		}
	}

	var insights []models.Insight
	if topID != "" {
		insights = append(insights, models.Insight{
			Kind:       models.InsightProductPerformance,
			Title:      "Top Performing Product",
			Message:    fmt.Sprintf("%s is your star performer with %.0f units sold (%.0f revenue).", names[topID], sold[topID], revenue[topID]),
			Priority:   models.PriorityMedium,
			Confidence: 90,
		})
	}

	slowCount := 0
	for _, qty := range sold {
		if qty <= slowMoverMaxUnits {
			slowCount++
		}
	}
	if slowCount > 0 {
		insights = append(insights, models.Insight{
			Kind:       models.InsightProductAlert,
			Title:      "Slow Moving Products",
			Message:    fmt.Sprintf("%d products have very low sales. Consider bundling or promotional offers.", slowCount),
			Priority:   models.PriorityMedium,
			Confidence: 80,
		})
	}
	return insights
}

// nameList renders at most maxNamesPerInsight names, with an ellipsis when
// truncated.
func nameList(names []string) string {
	if len(names) <= maxNamesPerInsight {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:maxNamesPerInsight], ", ") + "..."
}

// dedupeByKind keeps the first insight of each kind.
func dedupeByKind(insights []models.Insight) []models.Insight {
	seen := make(map[models.InsightKind]bool)
	out := insights[:0]
	for _, in := range insights {
		if seen[in.Kind] {
			continue
		}
		seen[in.Kind] = true
		out = append(out, in)
	}
	return out
}

var priorityRank = map[models.InsightPriority]int{
	models.PriorityCritical: 0,
	models.PriorityHigh:     1,
	models.PriorityMedium:   2,
	models.PriorityLow:      3,
}

// rankInsights orders by priority, then confidence descending.
func rankInsights(insights []models.Insight) {
	sort.SliceStable(insights, func(i, j int) bool {
		if priorityRank[insights[i].Priority] != priorityRank[insights[j].Priority] {
			return priorityRank[insights[i].Priority] < priorityRank[insights[j].Priority]
		}
		return insights[i].Confidence > insights[j].Confidence
	})
}
