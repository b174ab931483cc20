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

// Pricing thresholds: elasticity cutoffs for the regression path and margin
// cutoffs for the heuristic default path.
const (
	minPricingObservations = 5
	elasticCutoff          = -1.0
	inelasticCutoff        = -0.5
	lowMarginPct           = 20.0
	highMarginPct          = 50.0
)

// PriceElasticityAnalyzer estimates demand elasticity per product from
// historical (price, quantity) pairs and derives a bounded price
// recommendation. All failure modes degrade to the margin heuristic.
type PriceElasticityAnalyzer struct {
	repo repository.SalesReader
	now  func() time.Time
}

// NewPriceElasticityAnalyzer wires an analyzer over a sales reader.
func NewPriceElasticityAnalyzer(repo repository.SalesReader) *PriceElasticityAnalyzer {
	return &PriceElasticityAnalyzer{repo: repo, now: time.Now}
}

// Analyze produces a price recommendation for one product.
func (a *PriceElasticityAnalyzer) Analyze(ctx context.Context, product *models.Product) models.PriceRecommendation {
	today := a.now()
	sales, err := a.repo.ListProductSales(ctx, product.ID, today.AddDate(0, 0, -inventoryWindowDays), today)
	if err != nil {
		logger.Warn("⚠️ [PRICING] falling back to margin heuristic",
			zap.String("product", product.ID), zap.Error(err))
		return a.defaultPricing(product)
	}
	if len(sales) < minPricingObservations {
		return a.defaultPricing(product)
	}

	prices, quantities := demandByPrice(sales)
	if len(prices) < 2 {
		return a.defaultPricing(product)
	}

	// log-log regression: the slope is the elasticity estimate
	logPrices := make([]float64, len(prices))
	logQuantities := make([]float64, len(prices))
	for i, p := range prices {
		if p <= 0 {
			return a.defaultPricing(product)
		}
		logPrices[i] = math.Log(p)
		logQuantities[i] = math.Log(quantities[i] + 1) // +1 avoids log(0)
	}

	elasticity, _, err := linearFit(logPrices, logQuantities)
	if err != nil {
		return a.defaultPricing(product)
	}

	currentPrice := product.SalePrice.InexactFloat64()
	costPrice := 0.0
	if product.CostPrice != nil {
		costPrice = product.CostPrice.InexactFloat64()
	}

	var recommended float64
	var reason models.PriceReason
	switch {
	case elasticity < elasticCutoff: // elastic demand: lower price grows revenue
		recommended = currentPrice * 0.95
		reason = models.PriceReasonElastic
	case elasticity > inelasticCutoff: // inelastic demand: room to raise
		recommended = currentPrice * 1.10
		reason = models.PriceReasonInelastic
	default:
		recommended = currentPrice
		reason = models.PriceReasonOptimal
	}

	// minimum-margin floor
	minPrice := currentPrice * 0.8
	if costPrice > 0 {
		minPrice = costPrice * 1.2
	}
	if recommended < minPrice {
		recommended = minPrice
	}

	return models.PriceRecommendation{
		ProductID:         product.ID,
		ProductName:       product.Name,
		CurrentPrice:      currentPrice,
		RecommendedPrice:  round2(recommended),
		Elasticity:        round2(elasticity),
		Reason:            reason,
		Confidence:        75,
		ExpectedChangePct: expectedChangePct(currentPrice, recommended),
		Source:            models.SourceLearned,
	}
}

// AnalyzeShop runs the analyzer over the shop's active products and returns
// recommendations with a significant expected change, largest change first,
// capped at five.
func (a *PriceElasticityAnalyzer) AnalyzeShop(ctx context.Context, shopID string) ([]models.PriceRecommendation, error) {
	products, err := a.repo.ListActiveProducts(ctx, shopID)
	if err != nil {
		return nil, err
	}

	recs := make([]models.PriceRecommendation, 0)
	for i := range products {
		if products[i].SalePrice.IsZero() {
			continue
		}
		rec := a.Analyze(ctx, &products[i])
		if math.Abs(rec.ExpectedChangePct) > 2 {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		return math.Abs(recs[i].ExpectedChangePct) > math.Abs(recs[j].ExpectedChangePct)
	})
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs, nil
}

// defaultPricing applies the margin heuristic used whenever the elasticity
// regression cannot run.
func (a *PriceElasticityAnalyzer) defaultPricing(product *models.Product) models.PriceRecommendation {
	currentPrice := product.SalePrice.InexactFloat64()
	costPrice := 0.0
	if product.CostPrice != nil {
		costPrice = product.CostPrice.InexactFloat64()
	}

	recommended := currentPrice
	reason := models.PriceReasonNoCostData
	confidence := 40

	if costPrice > 0 && currentPrice > 0 {
		confidence = 50
		margin := (currentPrice - costPrice) / currentPrice * 100
		switch {
		case margin < lowMarginPct:
			recommended = costPrice * 1.25
			reason = models.PriceReasonLowMargin
		case margin > highMarginPct:
			recommended = currentPrice * 0.95
			reason = models.PriceReasonHighMargin
		default:
			reason = models.PriceReasonHealthyMargin
		}
	}

	return models.PriceRecommendation{
		ProductID:         product.ID,
		ProductName:       product.Name,
		CurrentPrice:      currentPrice,
		RecommendedPrice:  round2(recommended),
		Elasticity:        -1.0,
		Reason:            reason,
		Confidence:        confidence,
		ExpectedChangePct: expectedChangePct(currentPrice, recommended),
		Source:            models.SourceDefault,
	}
}

// demandByPrice groups observations by unit price and sums quantity per price
// point, returning parallel slices ordered by ascending price.
func demandByPrice(sales []models.LineItemSale) (prices, quantities []float64) {
	byPrice := make(map[string]float64)
	priceOf := make(map[string]float64)
	for _, s := range sales {
		key := s.UnitPrice.String()
		byPrice[key] += s.Quantity.InexactFloat64()
		priceOf[key] = s.UnitPrice.InexactFloat64()
	}

	keys := make([]string, 0, len(byPrice))
	for k := range byPrice {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return priceOf[keys[i]] < priceOf[keys[j]] })

	for _, k := range keys {
		prices = append(prices, priceOf[k])
		quantities = append(quantities, byPrice[k])
	}
	return prices, quantities
}

func expectedChangePct(current, recommended float64) float64 {
	if current == 0 {
		return 0
	}
	return round1((recommended - current) / current * 100)
}
