package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
)

// --- JWT & Auth ---

type JwtClaims struct {
	UserID string `json:"userId"`
	ShopID string `json:"shopId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// --- Core Models ---

// Shop represents a single retail tenant. Every record and every computation
// in the engine is scoped to exactly one shop.
type Shop struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Product represents an item sold by a shop. Stock is owned by the external
// inventory system; the engine only reads it.
type Product struct {
	ID            string           `json:"id"`
	ShopID        string           `json:"shop_id"`
	Name          string           `json:"name"`
	Stock         int              `json:"stock"`
	CostPrice     *decimal.Decimal `json:"cost_price,omitempty"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	MinStockAlert int              `json:"min_stock_alert"`
	IsActive      bool             `json:"is_active"`
}

// Bill represents a single sales transaction.
type Bill struct {
	ID           string          `json:"id"`
	ShopID       string          `json:"shop_id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	BillDate     time.Time       `json:"bill_date"`
}

// BillItem is one product line on a bill.
type BillItem struct {
	ID        string          `json:"id"`
	BillID    string          `json:"bill_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// DailyTotal is one day's summed sales for a shop.
type DailyTotal struct {
	Date  time.Time       `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// LineItemSale is a dated product sale observation used by the inventory and
// pricing analyzers.
type LineItemSale struct {
	Date      time.Time       `json:"date"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ShopItemSale is a dated line-item observation across a whole shop, joined
// with the product fields the rule-based insight checks need.
type ShopItemSale struct {
	Date        time.Time        `json:"date"`
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
}

// CustomerBill is the customer-level view of a bill used for RFM segmentation.
// Customer name is the proxy identity; no hard customer-id join is required.
type CustomerBill struct {
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Date         time.Time       `json:"date"`
}
