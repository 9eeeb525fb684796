package reports

import (
	"context"
	"time"
)

// Repository defines report data access. Aggregation happens in SQL;
// the service only merges and summarizes. All queries are owner-scoped
// via context and must return empty sets, not errors, when there is no
// data.
type Repository interface {
	// TopSellingProducts groups non-cancelled invoice lines since the
	// cutoff by product, summing quantity and revenue, ordered by
	// revenue descending, joined to the current product rows.
	TopSellingProducts(ctx context.Context, since time.Time, limit int) ([]TopProductItem, error)

	// SalesBuckets buckets non-cancelled invoices by calendar period.
	SalesBuckets(ctx context.Context, period Period, since time.Time) ([]SalesPoint, error)

	// PurchaseBuckets buckets products by creation date.
	PurchaseBuckets(ctx context.Context, period Period, since time.Time) ([]PurchasePoint, error)

	// ProductMetrics computes the inventory counters in one pass.
	ProductMetrics(ctx context.Context, asOf time.Time) (*ProductMetrics, error)

	// InvoiceMetrics computes the billing counters in one pass.
	InvoiceMetrics(ctx context.Context) (*InvoiceMetrics, error)
}
