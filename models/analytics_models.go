package models

import "time"

// ForecastMethod tags a forecast with the path that produced it.
type ForecastMethod string

const (
	MethodML          ForecastMethod = "ml"
	MethodStatistical ForecastMethod = "statistical"
)

// ResultSource tags an analyzer result with its provenance so callers can
// branch on how the numbers were obtained without inspecting magic fields.
type ResultSource string

const (
	SourceLearned     ResultSource = "learned"
	SourceStatistical ResultSource = "statistical"
	SourceDefault     ResultSource = "default"
)

// ForecastResult is one predicted day of sales for a shop.
type ForecastResult struct {
	Date            time.Time      `json:"date"`
	PredictedAmount float64        `json:"predicted_amount"`
	Confidence      int            `json:"confidence"`
	Method          ForecastMethod `json:"method"`
}

// InventoryProfile holds the recommended stocking parameters for one product,
// recomputed on demand from trailing 60-day sales.
type InventoryProfile struct {
	ProductID            string       `json:"product_id"`
	ReorderPoint         int          `json:"reorder_point"`
	OptimalOrderQuantity int          `json:"optimal_order_quantity"`
	SafetyStock          int          `json:"safety_stock"`
	DailyDemandEstimate  float64      `json:"daily_demand_estimate"`
	Confidence           int          `json:"confidence"`
	Source               ResultSource `json:"source"`
}

// PriceReason enumerates the rationale behind a price recommendation.
type PriceReason string

const (
	PriceReasonElastic       PriceReason = "elastic_demand"
	PriceReasonInelastic     PriceReason = "inelastic_demand"
	PriceReasonOptimal       PriceReason = "price_optimal"
	PriceReasonLowMargin     PriceReason = "low_margin"
	PriceReasonHighMargin    PriceReason = "high_margin"
	PriceReasonHealthyMargin PriceReason = "healthy_margin"
	PriceReasonNoCostData    PriceReason = "no_cost_data"
)

// PriceRecommendation is the pricing analyzer's output for one product.
type PriceRecommendation struct {
	ProductID         string       `json:"product_id"`
	ProductName       string       `json:"product_name,omitempty"`
	CurrentPrice      float64      `json:"current_price"`
	RecommendedPrice  float64      `json:"recommended_price"`
	Elasticity        float64      `json:"elasticity"`
	Reason            PriceReason  `json:"reason"`
	Confidence        int          `json:"confidence"`
	ExpectedChangePct float64      `json:"expected_change_pct"`
	Source            ResultSource `json:"source"`
}

// RFMMetrics are the per-customer Recency/Frequency/Monetary values computed
// over the trailing 90-day window.
type RFMMetrics struct {
	CustomerName string  `json:"customer_name"`
	RecencyDays  float64 `json:"recency_days"`
	Frequency    float64 `json:"frequency"`
	Monetary     float64 `json:"monetary"`
}

// CustomerSegment is one named behavioral cluster of customers.
type CustomerSegment struct {
	SegmentID      int      `json:"segment_id"`
	Name           string   `json:"name"`
	Customers      []string `json:"customers"`
	CustomerCount  int      `json:"customer_count"`
	AvgRecencyDays float64  `json:"avg_recency_days"`
	AvgFrequency   float64  `json:"avg_frequency"`
	AvgMonetary    float64  `json:"avg_monetary"`
}

// Segment names assigned by the customer segmenter.
const (
	SegmentChampions = "Champions"
	SegmentLoyal     = "Loyal Customers"
	SegmentAtRisk    = "At Risk"
	SegmentRegular   = "Regular Customer"
)

// InsightKind enumerates the closed set of insight variants.
type InsightKind string

const (
	InsightSalesGrowth        InsightKind = "sales_growth"
	InsightSalesDecline       InsightKind = "sales_decline"
	InsightPerformance        InsightKind = "performance"
	InsightStockAlert         InsightKind = "stock_alert"
	InsightOverstock          InsightKind = "overstock"
	InsightPricingAlert       InsightKind = "pricing_alert"
	InsightPricingOpportunity InsightKind = "pricing_opportunity"
	InsightCustomerValue      InsightKind = "customer_value"
	InsightCustomerLoyalty    InsightKind = "customer_loyalty"
	InsightProductPerformance InsightKind = "product_performance"
	InsightProductAlert       InsightKind = "product_alert"
)

// InsightPriority orders insights for display.
type InsightPriority string

const (
	PriorityLow      InsightPriority = "low"
	PriorityMedium   InsightPriority = "medium"
	PriorityHigh     InsightPriority = "high"
	PriorityCritical InsightPriority = "critical"
)

// Insight is one actionable finding for a shop. Insights are persisted and
// superseded wholesale each regeneration run.
type Insight struct {
	ID         string          `json:"id"`
	ShopID     string          `json:"shop_id"`
	Kind       InsightKind     `json:"kind"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	Priority   InsightPriority `json:"priority"`
	Confidence int             `json:"confidence"`
	IsRead     bool            `json:"is_read"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// StockoutForecast estimates when a product runs dry at its trailing velocity.
type StockoutForecast struct {
	ProductID          string  `json:"product_id"`
	ProductName        string  `json:"product_name"`
	CurrentStock       int     `json:"current_stock"`
	DailyVelocity      float64 `json:"daily_velocity"`
	DaysRemaining      int     `json:"days_remaining"`
	RestockNeeded      bool    `json:"restock_needed"`
	RecommendedReorder int     `json:"recommended_reorder"`
	Confidence         int     `json:"confidence"`
}

// AnalyticsDashboard is the full structured result set for one shop: every
// analyzer's output in one response, complete even when individual analyzers
// degraded to their default paths.
type AnalyticsDashboard struct {
	Forecast    []ForecastResult      `json:"forecast"`
	ModelActive bool                  `json:"model_active"`
	Stockouts   []StockoutForecast    `json:"stockouts"`
	Pricing     []PriceRecommendation `json:"pricing"`
	Segments    []CustomerSegment     `json:"segments"`
	Profit      ProfitSummary         `json:"profit"`
	Insights    []Insight             `json:"insights"`
}

// ProfitSummary aggregates trailing 30-day revenue, cost and margin.
type ProfitSummary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCost      float64 `json:"total_cost"`
	TotalProfit    float64 `json:"total_profit"`
	ProfitMargin   float64 `json:"profit_margin"`
	DailyAvgProfit float64 `json:"daily_avg_profit"`
	Confidence     int     `json:"confidence"`
}
