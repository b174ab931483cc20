package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplens/models"
)

func newTestAggregator(t *testing.T, repo *fakeSalesReader, store *fakeInsightStore) *InsightAggregator {
	t.Helper()
	forecaster := NewDemandForecaster(repo, NewModelRegistry(t.TempDir()))
	forecaster.now = func() time.Time { return testNow }
	inventory := NewInventoryOptimizer(repo)
	inventory.now = func() time.Time { return testNow }
	pricing := NewPriceElasticityAnalyzer(repo)
	pricing.now = func() time.Time { return testNow }
	segmenter := NewCustomerSegmenter(repo)
	segmenter.now = func() time.Time { return testNow }

	a := NewInsightAggregator(repo, store, forecaster, inventory, pricing, segmenter)
	a.now = func() time.Time { return testNow }
	return a
}

// growthSeries: 23 days at base then 7 days at recent.
func growthSeries(base, recent float64) []models.DailyTotal {
	var out []models.DailyTotal
	for i := 30; i >= 8; i-- {
		out = append(out, models.DailyTotal{Date: testNow.AddDate(0, 0, -i), Total: dec(base)})
	}
	for i := 7; i >= 1; i-- {
		out = append(out, models.DailyTotal{Date: testNow.AddDate(0, 0, -i), Total: dec(recent)})
	}
	return out
}

func findInsight(insights []models.Insight, kind models.InsightKind) *models.Insight {
	for i := range insights {
		if insights[i].Kind == kind {
			return &insights[i]
		}
	}
	return nil
}

func TestGenerateSalesGrowthInsight(t *testing.T) {
	repo := &fakeSalesReader{dailyTotals: growthSeries(100, 300)}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	insights := a.Generate(context.Background(), "shop-1")
	growth := findInsight(insights, models.InsightSalesGrowth)
	require.NotNil(t, growth)
	assert.Equal(t, models.PriorityHigh, growth.Priority)
	assert.Equal(t, 90, growth.Confidence)
	assert.Nil(t, findInsight(insights, models.InsightSalesDecline))
}

func TestGenerateSalesDeclineInsight(t *testing.T) {
	repo := &fakeSalesReader{dailyTotals: growthSeries(300, 50)}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	insights := a.Generate(context.Background(), "shop-1")
	decline := findInsight(insights, models.InsightSalesDecline)
	require.NotNil(t, decline)
	assert.Equal(t, models.PriorityCritical, decline.Priority)
}

func TestGenerateStockAndMarginInsights(t *testing.T) {
	repo := &fakeSalesReader{
		products: []models.Product{
			{ID: "low", Name: "Nearly Gone", Stock: 2, SalePrice: dec(100), CostPrice: decPtr(50)},
			{ID: "thin", Name: "Thin Margin", Stock: 30, SalePrice: dec(100), CostPrice: decPtr(90)},
			{ID: "fat", Name: "Fat Margin", Stock: 30, SalePrice: dec(100), CostPrice: decPtr(30)},
			{ID: "stale", Name: "Dust Collector", Stock: 60, SalePrice: dec(100), CostPrice: decPtr(50)},
		},
		shopSales: []models.ShopItemSale{
			{Date: testNow.AddDate(0, 0, -1), ProductID: "low", ProductName: "Nearly Gone", Quantity: dec(3), UnitPrice: dec(100)},
		},
	}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	insights := a.Generate(context.Background(), "shop-1")

	stock := findInsight(insights, models.InsightStockAlert)
	require.NotNil(t, stock)
	assert.Equal(t, models.PriorityCritical, stock.Priority)
	assert.Contains(t, stock.Message, "Nearly Gone")

	over := findInsight(insights, models.InsightOverstock)
	require.NotNil(t, over)
	assert.Contains(t, over.Message, "Dust Collector")

	lowMargin := findInsight(insights, models.InsightPricingAlert)
	require.NotNil(t, lowMargin)
	assert.Contains(t, lowMargin.Message, "Thin Margin")

	highMargin := findInsight(insights, models.InsightPricingOpportunity)
	require.NotNil(t, highMargin)
	assert.Contains(t, highMargin.Message, "Fat Margin")
}

func TestGenerateCustomerInsights(t *testing.T) {
	repo := &fakeSalesReader{bills: []models.CustomerBill{
		bill("Su Su", 800, 1),
		bill("Su Su", 700, 3),
		bill("Su Su", 900, 5),
		bill("Su Su", 600, 7),
	}}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	insights := a.Generate(context.Background(), "shop-1")

	value := findInsight(insights, models.InsightCustomerValue)
	require.NotNil(t, value) // avg transaction 750 > 500

	loyalty := findInsight(insights, models.InsightCustomerLoyalty)
	require.NotNil(t, loyalty) // 3 repeat purchases per customer
}

func TestGenerateProductInsights(t *testing.T) {
	repo := &fakeSalesReader{shopSales: []models.ShopItemSale{
		{Date: testNow.AddDate(0, 0, -1), ProductID: "star", ProductName: "Best Seller", Quantity: dec(50), UnitPrice: dec(10)},
		{Date: testNow.AddDate(0, 0, -2), ProductID: "slow", ProductName: "Barely Moves", Quantity: dec(1), UnitPrice: dec(10)},
	}}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	insights := a.Generate(context.Background(), "shop-1")

	top := findInsight(insights, models.InsightProductPerformance)
	require.NotNil(t, top)
	assert.Contains(t, top.Message, "Best Seller")

	slow := findInsight(insights, models.InsightProductAlert)
	require.NotNil(t, slow)
}

func TestGenerateFillsIdentityAndRanks(t *testing.T) {
	repo := &fakeSalesReader{
		dailyTotals: growthSeries(300, 50), // critical decline
		products: []models.Product{
			{ID: "fat", Name: "Fat Margin", Stock: 30, SalePrice: dec(100), CostPrice: decPtr(30)}, // low priority
		},
	}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	insights := a.Generate(context.Background(), "shop-1")
	require.NotEmpty(t, insights)

	// critical sorts ahead of low
	assert.Equal(t, models.InsightSalesDecline, insights[0].Kind)

	seenKinds := make(map[models.InsightKind]bool)
	for _, in := range insights {
		assert.NotEmpty(t, in.ID)
		assert.Equal(t, "shop-1", in.ShopID)
		assert.True(t, in.IsActive)
		assert.Equal(t, testNow, in.CreatedAt)
		assert.False(t, seenKinds[in.Kind], "duplicate kind %s", in.Kind)
		seenKinds[in.Kind] = true
	}
}

func TestRegenerateReplacesStoredSet(t *testing.T) {
	repo := &fakeSalesReader{dailyTotals: growthSeries(100, 300)}
	store := &fakeInsightStore{}
	a := newTestAggregator(t, repo, store)

	insights, err := a.Regenerate(context.Background(), "shop-1")
	require.NoError(t, err)
	require.NotEmpty(t, insights)
	assert.Equal(t, insights, store.replaced)
}

func TestRegenerateStoreFailure(t *testing.T) {
	repo := &fakeSalesReader{dailyTotals: growthSeries(100, 300)}
	store := &fakeInsightStore{replaceErr: errors.New("tx aborted")}
	a := newTestAggregator(t, repo, store)

	_, err := a.Regenerate(context.Background(), "shop-1")
	assert.Error(t, err)
}

func TestProfitSummary(t *testing.T) {
	repo := &fakeSalesReader{shopSales: []models.ShopItemSale{
		{Date: testNow.AddDate(0, 0, -1), ProductID: "p1", ProductName: "A", Quantity: dec(10), UnitPrice: dec(200), CostPrice: decPtr(120)},
		{Date: testNow.AddDate(0, 0, -2), ProductID: "p2", ProductName: "B", Quantity: dec(5), UnitPrice: dec(100)},
	}}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	summary := a.ProfitSummary(context.Background(), "shop-1")
	assert.Equal(t, 2500.0, summary.TotalRevenue)
	assert.Equal(t, 1200.0, summary.TotalCost) // missing cost treated as zero
	assert.Equal(t, 1300.0, summary.TotalProfit)
	assert.Equal(t, 52.0, summary.ProfitMargin)
	assert.Equal(t, 90, summary.Confidence)
}

func TestDashboardCompleteResultSet(t *testing.T) {
	repo := &fakeSalesReader{
		dailyTotals: dailySeries(testNow, 3, 100),
		products:    []models.Product{{ID: "p1", Name: "Widget", Stock: 10, SalePrice: dec(50)}},
	}
	a := newTestAggregator(t, repo, &fakeInsightStore{})

	dash := a.Dashboard(context.Background(), "shop-1")

	require.Len(t, dash.Forecast, 7)
	assert.Equal(t, models.MethodStatistical, dash.Forecast[0].Method)
	assert.False(t, dash.ModelActive)
	assert.NotNil(t, dash.Stockouts)
	assert.NotNil(t, dash.Pricing)
	assert.NotNil(t, dash.Segments)
	assert.NotNil(t, dash.Insights)
}

func TestNameListTruncates(t *testing.T) {
	assert.Equal(t, "a, b", nameList([]string{"a", "b"}))
	assert.Equal(t, "a, b, c", nameList([]string{"a", "b", "c"}))
	assert.Equal(t, "a, b, c...", nameList([]string{"a", "b", "c", "d"}))
}
