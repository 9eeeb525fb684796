package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventra/internal/core/types"
)

// Service provides the dashboard report operations. Read-only and
// idempotent; empty data produces zeroed reports, never errors.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TopSellingProducts returns the highest-revenue products of the
// trailing window plus a summary.
func (s *Service) TopSellingProducts(ctx context.Context, f TopProductsFilter) (*TopProductsReport, error) {
	if f.Limit <= 0 {
		f.Limit = 5
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.WindowDays <= 0 {
		f.WindowDays = 30
	}

	since := s.now().AddDate(0, 0, -f.WindowDays)
	items, err := s.repo.TopSellingProducts(ctx, since, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}

	summary := TopProductsSummary{
		ProductCount: len(items),
		TotalRevenue: types.Zero(),
	}
	for _, item := range items {
		summary.TotalRevenue = summary.TotalRevenue.Add(item.TotalRevenue)
		summary.TotalQuantity += item.TotalQuantity
	}
	if summary.ProductCount > 0 {
		summary.AverageRevenuePerProduct = summary.TotalRevenue.
			Div(types.NewMoney(float64(summary.ProductCount)))
	} else {
		summary.AverageRevenuePerProduct = types.Zero()
	}

	return &TopProductsReport{Items: items, Summary: summary}, nil
}

// SalesOverTime buckets invoice sales and product-creation purchases by
// calendar period and outer-joins the two series on period key: a
// period present in either series appears in the result, zero-filled on
// the missing side, sorted chronologically.
func (s *Service) SalesOverTime(ctx context.Context, f SalesOverTimeFilter) (*SalesOverTimeReport, error) {
	if !isValidPeriod(f.Period) {
		f.Period = PeriodDaily
	}
	if f.NumPeriods <= 0 {
		f.NumPeriods = defaultNumPeriods(f.Period)
	}

	since := windowStart(s.now(), f.Period, f.NumPeriods)

	sales, err := s.repo.SalesBuckets(ctx, f.Period, since)
	if err != nil {
		return nil, fmt.Errorf("sales buckets: %w", err)
	}
	purchases, err := s.repo.PurchaseBuckets(ctx, f.Period, since)
	if err != nil {
		return nil, fmt.Errorf("purchase buckets: %w", err)
	}

	merged := make(map[string]*SalesBucket)
	bucket := func(key string) *SalesBucket {
		if b, ok := merged[key]; ok {
			return b
		}
		b := &SalesBucket{
			PeriodKey: key,
			Sales:     types.Zero(),
			Purchases: types.Zero(),
		}
		merged[key] = b
		return b
	}

	summary := SalesSummary{
		TotalSales:     types.Zero(),
		TotalPurchases: types.Zero(),
	}
	for _, p := range sales {
		b := bucket(p.PeriodKey)
		b.Sales = p.Sales
		b.InvoiceCount = p.InvoiceCount
		summary.TotalSales = summary.TotalSales.Add(p.Sales)
		summary.TotalInvoices += p.InvoiceCount
	}
	for _, p := range purchases {
		b := bucket(p.PeriodKey)
		b.Purchases = p.Purchases
		b.ProductCount = p.ProductCount
		summary.TotalPurchases = summary.TotalPurchases.Add(p.Purchases)
		summary.TotalProductsAdded += p.ProductCount
	}

	buckets := make([]SalesBucket, 0, len(merged))
	for _, b := range merged {
		buckets = append(buckets, *b)
	}
	// Period keys are zero-padded (2025-01-02, 2025-W01, 2025), so
	// lexicographic order is chronological.
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].PeriodKey < buckets[j].PeriodKey
	})

	return &SalesOverTimeReport{
		Period:  f.Period,
		Buckets: buckets,
		Summary: summary,
	}, nil
}

// ProductMetrics returns the inventory-side dashboard counters.
func (s *Service) ProductMetrics(ctx context.Context) (*ProductMetrics, error) {
	m, err := s.repo.ProductMetrics(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("product metrics: %w", err)
	}
	return m, nil
}

// InvoiceMetrics returns the billing-side dashboard counters.
func (s *Service) InvoiceMetrics(ctx context.Context) (*InvoiceMetrics, error) {
	m, err := s.repo.InvoiceMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoice metrics: %w", err)
	}
	return m, nil
}

func isValidPeriod(p Period) bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodYearly:
		return true
	}
	return false
}

func defaultNumPeriods(p Period) int {
	switch p {
	case PeriodWeekly:
		return 12
	case PeriodYearly:
		return 5
	default:
		return 30
	}
}

func windowStart(now time.Time, p Period, n int) time.Time {
	switch p {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7*n)
	case PeriodYearly:
		return now.AddDate(-n, 0, 0)
	default:
		return now.AddDate(0, 0, -n)
	}
}
