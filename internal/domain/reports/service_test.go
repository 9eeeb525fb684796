package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/types"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

type stubRepo struct {
	top       []TopProductItem
	sales     []SalesPoint
	purchases []PurchasePoint

	topSince time.Time
	topLimit int
}

func (r *stubRepo) TopSellingProducts(ctx context.Context, since time.Time, limit int) ([]TopProductItem, error) {
	r.topSince = since
	r.topLimit = limit
	return r.top, nil
}

func (r *stubRepo) SalesBuckets(ctx context.Context, period Period, since time.Time) ([]SalesPoint, error) {
	return r.sales, nil
}

func (r *stubRepo) PurchaseBuckets(ctx context.Context, period Period, since time.Time) ([]PurchasePoint, error) {
	return r.purchases, nil
}

func (r *stubRepo) ProductMetrics(ctx context.Context, now time.Time) (*ProductMetrics, error) {
	return &ProductMetrics{}, nil
}

func (r *stubRepo) InvoiceMetrics(ctx context.Context) (*InvoiceMetrics, error) {
	return &InvoiceMetrics{}, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo).WithClock(func() time.Time { return testNow })
}

func TestTopSellingProducts_Summary(t *testing.T) {
	repo := &stubRepo{
		top: []TopProductItem{
			{SKU: "SKU-001", TotalQuantity: 10, TotalRevenue: types.MustMoney("1000")},
			{SKU: "SKU-002", TotalQuantity: 4, TotalRevenue: types.MustMoney("500")},
		},
	}
	svc := newTestService(repo)

	report, err := svc.TopSellingProducts(context.Background(), TopProductsFilter{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.ProductCount)
	assert.Equal(t, int64(14), report.Summary.TotalQuantity)
	assert.True(t, report.Summary.TotalRevenue.Equal(types.MustMoney("1500")))
	assert.True(t, report.Summary.AverageRevenuePerProduct.Equal(types.MustMoney("750")))
}

func TestTopSellingProducts_Defaults(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	_, err := svc.TopSellingProducts(context.Background(), TopProductsFilter{})
	require.NoError(t, err)

	assert.Equal(t, 5, repo.topLimit)
	assert.Equal(t, testNow.AddDate(0, 0, -30), repo.topSince)

	// Limit is capped.
	_, err = svc.TopSellingProducts(context.Background(), TopProductsFilter{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.topLimit)
}

func TestTopSellingProducts_Empty(t *testing.T) {
	svc := newTestService(&stubRepo{})

	report, err := svc.TopSellingProducts(context.Background(), TopProductsFilter{})
	require.NoError(t, err)

	assert.Empty(t, report.Items)
	assert.Equal(t, 0, report.Summary.ProductCount)
	assert.True(t, report.Summary.TotalRevenue.IsZero())
	assert.True(t, report.Summary.AverageRevenuePerProduct.IsZero())
}

func TestSalesOverTime_OuterJoinZeroFill(t *testing.T) {
	repo := &stubRepo{
		sales: []SalesPoint{
			{PeriodKey: "2026-06-10", Sales: types.MustMoney("660"), InvoiceCount: 2},
			{PeriodKey: "2026-06-12", Sales: types.MustMoney("100"), InvoiceCount: 1},
		},
		purchases: []PurchasePoint{
			{PeriodKey: "2026-06-12", Purchases: types.MustMoney("40"), ProductCount: 3},
			{PeriodKey: "2026-06-14", Purchases: types.MustMoney("200"), ProductCount: 1},
		},
	}
	svc := newTestService(repo)

	report, err := svc.SalesOverTime(context.Background(), SalesOverTimeFilter{Period: PeriodDaily})
	require.NoError(t, err)

	// A period present in either series appears, chronologically.
	require.Len(t, report.Buckets, 3)
	assert.Equal(t, "2026-06-10", report.Buckets[0].PeriodKey)
	assert.Equal(t, "2026-06-12", report.Buckets[1].PeriodKey)
	assert.Equal(t, "2026-06-14", report.Buckets[2].PeriodKey)

	// Sales-only bucket is zero-filled on the purchase side.
	assert.True(t, report.Buckets[0].Purchases.IsZero())
	assert.Equal(t, int64(0), report.Buckets[0].ProductCount)

	// Shared bucket carries both sides.
	assert.True(t, report.Buckets[1].Sales.Equal(types.MustMoney("100")))
	assert.True(t, report.Buckets[1].Purchases.Equal(types.MustMoney("40")))

	// Purchase-only bucket is zero-filled on the sales side.
	assert.True(t, report.Buckets[2].Sales.IsZero())
	assert.Equal(t, int64(0), report.Buckets[2].InvoiceCount)

	assert.True(t, report.Summary.TotalSales.Equal(types.MustMoney("760")))
	assert.True(t, report.Summary.TotalPurchases.Equal(types.MustMoney("240")))
	assert.Equal(t, int64(3), report.Summary.TotalInvoices)
	assert.Equal(t, int64(4), report.Summary.TotalProductsAdded)
}

func TestSalesOverTime_InvalidPeriodFallsBackToDaily(t *testing.T) {
	svc := newTestService(&stubRepo{})

	report, err := svc.SalesOverTime(context.Background(), SalesOverTimeFilter{Period: Period("hourly")})
	require.NoError(t, err)
	assert.Equal(t, PeriodDaily, report.Period)
}

func TestSalesOverTime_Empty(t *testing.T) {
	svc := newTestService(&stubRepo{})

	report, err := svc.SalesOverTime(context.Background(), SalesOverTimeFilter{Period: PeriodWeekly})
	require.NoError(t, err)
	assert.Empty(t, report.Buckets)
	assert.True(t, report.Summary.TotalSales.IsZero())
}

func TestSalesOverTime_WeeklyKeysSortLexicographically(t *testing.T) {
	repo := &stubRepo{
		sales: []SalesPoint{
			{PeriodKey: "2026-W10", Sales: types.MustMoney("10")},
			{PeriodKey: "2026-W02", Sales: types.MustMoney("20")},
			{PeriodKey: "2025-W52", Sales: types.MustMoney("30")},
		},
	}
	svc := newTestService(repo)

	report, err := svc.SalesOverTime(context.Background(), SalesOverTimeFilter{Period: PeriodWeekly})
	require.NoError(t, err)

	require.Len(t, report.Buckets, 3)
	assert.Equal(t, "2025-W52", report.Buckets[0].PeriodKey)
	assert.Equal(t, "2026-W02", report.Buckets[1].PeriodKey)
	assert.Equal(t, "2026-W10", report.Buckets[2].PeriodKey)
}
