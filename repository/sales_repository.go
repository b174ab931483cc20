package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoplens/models"
)

// ErrProductNotFound is returned when a product id does not exist.
var ErrProductNotFound = errors.New("product not found")

// SalesReader exposes the per-shop, per-date-range read access the analytics
// engine needs. The engine never mutates this data.
type SalesReader interface {
	// ListDailyTotals returns one summed total per calendar day that had at
	// least one bill, ordered by date ascending.
	ListDailyTotals(ctx context.Context, shopID string, from, to time.Time) ([]models.DailyTotal, error)
	// ListProductSales returns dated (quantity, unit price) observations for
	// one product, ordered by date ascending.
	ListProductSales(ctx context.Context, productID string, from, to time.Time) ([]models.LineItemSale, error)
	// ListShopItemSales returns dated line items across the whole shop joined
	// with product name and cost, ordered by date ascending.
	ListShopItemSales(ctx context.Context, shopID string, from, to time.Time) ([]models.ShopItemSale, error)
	// ListCustomerBills returns (customer, total, date) tuples for bills with
	// a non-empty customer name.
	ListCustomerBills(ctx context.Context, shopID string, from, to time.Time) ([]models.CustomerBill, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	ListActiveProducts(ctx context.Context, shopID string) ([]models.Product, error)
}

type pgSalesRepository struct {
	pool *pgxpool.Pool
}

// NewSalesRepository returns a Postgres-backed SalesReader.
func NewSalesRepository(pool *pgxpool.Pool) SalesReader {
	return &pgSalesRepository{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *pgSalesRepository) ListDailyTotals(ctx context.Context, shopID string, from, to time.Time) ([]models.DailyTotal, error) {
	query, args, err := psql.
		Select("bill_date::date AS day", "COALESCE(SUM(total), 0) AS daily_total").
		From("bills").
		Where(sq.Eq{"shop_id": shopID}).
		Where(sq.GtOrEq{"bill_date": from}).
		Where(sq.LtOrEq{"bill_date": to}).
		GroupBy("day").
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build daily totals query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []models.DailyTotal
	for rows.Next() {
		var t models.DailyTotal
		if err := rows.Scan(&t.Date, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *pgSalesRepository) ListProductSales(ctx context.Context, productID string, from, to time.Time) ([]models.LineItemSale, error) {
	query, args, err := psql.
		Select("b.bill_date", "bi.product_id", "bi.quantity", "bi.unit_price").
		From("bill_items bi").
		Join("bills b ON b.id = bi.bill_id").
		Where(sq.Eq{"bi.product_id": productID}).
		Where(sq.GtOrEq{"b.bill_date": from}).
		Where(sq.LtOrEq{"b.bill_date": to}).
		OrderBy("b.bill_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build product sales query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product sales: %w", err)
	}
	defer rows.Close()

	var sales []models.LineItemSale
	for rows.Next() {
		var s models.LineItemSale
		if err := rows.Scan(&s.Date, &s.ProductID, &s.Quantity, &s.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan product sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *pgSalesRepository) ListShopItemSales(ctx context.Context, shopID string, from, to time.Time) ([]models.ShopItemSale, error) {
	query, args, err := psql.
		Select("b.bill_date", "bi.product_id", "p.name", "bi.quantity", "bi.unit_price", "p.cost_price").
		From("bill_items bi").
		Join("bills b ON b.id = bi.bill_id").
		Join("products p ON p.id = bi.product_id").
		Where(sq.Eq{"b.shop_id": shopID}).
		Where(sq.GtOrEq{"b.bill_date": from}).
		Where(sq.LtOrEq{"b.bill_date": to}).
		OrderBy("b.bill_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build shop item sales query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shop item sales: %w", err)
	}
	defer rows.Close()

	var sales []models.ShopItemSale
	for rows.Next() {
		var s models.ShopItemSale
		if err := rows.Scan(&s.Date, &s.ProductID, &s.ProductName, &s.Quantity, &s.UnitPrice, &s.CostPrice); err != nil {
			return nil, fmt.Errorf("failed to scan shop item sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *pgSalesRepository) ListCustomerBills(ctx context.Context, shopID string, from, to time.Time) ([]models.CustomerBill, error) {
	query, args, err := psql.
		Select("customer_name", "total", "bill_date").
		From("bills").
		Where(sq.Eq{"shop_id": shopID}).
		Where(sq.NotEq{"customer_name": ""}).
		Where(sq.GtOrEq{"bill_date": from}).
		Where(sq.LtOrEq{"bill_date": to}).
		OrderBy("bill_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build customer bills query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer bills: %w", err)
	}
	defer rows.Close()

	var bills []models.CustomerBill
	for rows.Next() {
		var b models.CustomerBill
		if err := rows.Scan(&b.CustomerName, &b.Total, &b.Date); err != nil {
			return nil, fmt.Errorf("failed to scan customer bill: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (r *pgSalesRepository) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	query, args, err := psql.
		Select("id", "shop_id", "name", "stock", "cost_price", "sale_price", "min_stock_alert", "is_active").
		From("products").
		Where(sq.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build product query: %w", err)
	}

	var p models.Product
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.ShopID, &p.Name, &p.Stock, &p.CostPrice, &p.SalePrice, &p.MinStockAlert, &p.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &p, nil
}

func (r *pgSalesRepository) ListActiveProducts(ctx context.Context, shopID string) ([]models.Product, error) {
	query, args, err := psql.
		Select("id", "shop_id", "name", "stock", "cost_price", "sale_price", "min_stock_alert", "is_active").
		From("products").
		Where(sq.Eq{"shop_id": shopID, "is_active": true}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build active products query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.ShopID, &p.Name, &p.Stock, &p.CostPrice, &p.SalePrice, &p.MinStockAlert, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
