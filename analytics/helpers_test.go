package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"shoplens/models"
	"shoplens/repository"
)

// fakeSalesReader serves canned query results so analyzer tests run without a
// database.
type fakeSalesReader struct {
	dailyTotals  []models.DailyTotal
	dailyErr     error
	productSales map[string][]models.LineItemSale
	productErr   error
	shopSales    []models.ShopItemSale
	shopErr      error
	bills        []models.CustomerBill
	billsErr     error
	products     []models.Product
	productsErr  error
}

func (f *fakeSalesReader) ListDailyTotals(_ context.Context, _ string, _, _ time.Time) ([]models.DailyTotal, error) {
	return f.dailyTotals, f.dailyErr
}

func (f *fakeSalesReader) ListProductSales(_ context.Context, productID string, _, _ time.Time) ([]models.LineItemSale, error) {
	if f.productErr != nil {
		return nil, f.productErr
	}
	return f.productSales[productID], nil
}

func (f *fakeSalesReader) ListShopItemSales(_ context.Context, _ string, _, _ time.Time) ([]models.ShopItemSale, error) {
	return f.shopSales, f.shopErr
}

func (f *fakeSalesReader) ListCustomerBills(_ context.Context, _ string, _, _ time.Time) ([]models.CustomerBill, error) {
	return f.bills, f.billsErr
}

func (f *fakeSalesReader) GetProduct(_ context.Context, productID string) (*models.Product, error) {
	for i := range f.products {
		if f.products[i].ID == productID {
			return &f.products[i], nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *fakeSalesReader) ListActiveProducts(_ context.Context, _ string) ([]models.Product, error) {
	return f.products, f.productsErr
}

var _ repository.SalesReader = (*fakeSalesReader)(nil)

// fakeInsightStore records Replace calls in memory.
type fakeInsightStore struct {
	replaced   []models.Insight
	replaceErr error
	read       []string
}

func (f *fakeInsightStore) Replace(_ context.Context, _ string, insights []models.Insight) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = insights
	return nil
}

func (f *fakeInsightStore) List(_ context.Context, _ string, _, _ int) ([]models.Insight, int, error) {
	return f.replaced, len(f.replaced), nil
}

func (f *fakeInsightStore) MarkRead(_ context.Context, _, insightID string) error {
	f.read = append(f.read, insightID)
	return nil
}

var _ repository.InsightStore = (*fakeInsightStore)(nil)

// dailySeries builds n consecutive daily totals ending the day before `end`.
func dailySeries(end time.Time, n int, total float64) []models.DailyTotal {
	out := make([]models.DailyTotal, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, models.DailyTotal{
			Date:  end.AddDate(0, 0, -i),
			Total: decimal.NewFromFloat(total),
		})
	}
	return out
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
