// Package report_repo provides the PostgreSQL implementation of the
// dashboard report repository. All aggregation happens in SQL; the
// service layer only merges series and computes summaries.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	appctx "inventra/internal/core/context"
	"inventra/internal/domain/invoice"
	"inventra/internal/domain/reports"
	"inventra/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

var _ reports.Repository = (*ReportRepo)(nil)

func (r *ReportRepo) owner(ctx context.Context) string {
	return appctx.GetUserID(ctx)
}

// periodFormat maps a bucketing period to its to_char pattern. The keys
// sort lexicographically in chronological order (2025-01-02, 2025-W01,
// 2025), which the service relies on.
func periodFormat(p reports.Period) string {
	switch p {
	case reports.PeriodWeekly:
		return `IYYY-"W"IW`
	case reports.PeriodYearly:
		return `YYYY`
	default:
		return `YYYY-MM-DD`
	}
}

// TopSellingProducts groups non-cancelled invoice lines by product.
// The product row is joined back for current price and remaining stock;
// a since-deleted product falls back to the line snapshot.
func (r *ReportRepo) TopSellingProducts(ctx context.Context, since time.Time, limit int) ([]reports.TopProductItem, error) {
	query := `
		SELECT
			l.sku,
			COALESCE(p.name, MAX(l.name)) AS name,
			COALESCE(p.category, '') AS category,
			COALESCE(p.price, 0) AS price,
			COALESCE(p.quantity, 0) AS remaining,
			SUM(l.quantity) AS total_quantity,
			SUM(l.total) AS total_revenue
		FROM invoice_lines l
		JOIN invoices i ON l.invoice_id = i.id
		LEFT JOIN products p ON p.sku = l.sku AND p.user_id = i.user_id
		WHERE i.user_id = $1
		  AND i.status <> $2
		  AND i.invoice_date >= $3
		GROUP BY l.sku, p.name, p.category, p.price, p.quantity
		ORDER BY total_revenue DESC, total_quantity DESC, l.sku
		LIMIT $4
	`

	items := make([]reports.TopProductItem, 0)
	querier := r.txm.GetQuerier(ctx)
	err := pgxscan.Select(ctx, querier, &items, query,
		r.owner(ctx), string(invoice.StatusCancelled), since, limit)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	return items, nil
}

// SalesBuckets buckets non-cancelled invoices by invoice date.
func (r *ReportRepo) SalesBuckets(ctx context.Context, period reports.Period, since time.Time) ([]reports.SalesPoint, error) {
	query := fmt.Sprintf(`
		SELECT
			to_char(i.invoice_date, '%s') AS period_key,
			COALESCE(SUM(i.total_amount), 0) AS sales,
			COUNT(*) AS invoice_count
		FROM invoices i
		WHERE i.user_id = $1
		  AND i.status <> $2
		  AND i.invoice_date >= $3
		GROUP BY 1
		ORDER BY 1
	`, periodFormat(period))

	points := make([]reports.SalesPoint, 0)
	querier := r.txm.GetQuerier(ctx)
	err := pgxscan.Select(ctx, querier, &points, query,
		r.owner(ctx), string(invoice.StatusCancelled), since)
	if err != nil {
		return nil, fmt.Errorf("sales buckets: %w", err)
	}
	return points, nil
}

// PurchaseBuckets buckets products by creation date, costing each at
// price × quantity.
func (r *ReportRepo) PurchaseBuckets(ctx context.Context, period reports.Period, since time.Time) ([]reports.PurchasePoint, error) {
	query := fmt.Sprintf(`
		SELECT
			to_char(p.created_at, '%s') AS period_key,
			COALESCE(SUM(p.price * p.quantity), 0) AS purchases,
			COUNT(*) AS product_count
		FROM products p
		WHERE p.user_id = $1
		  AND p.created_at >= $2
		GROUP BY 1
		ORDER BY 1
	`, periodFormat(period))

	points := make([]reports.PurchasePoint, 0)
	querier := r.txm.GetQuerier(ctx)
	err := pgxscan.Select(ctx, querier, &points, query, r.owner(ctx), since)
	if err != nil {
		return nil, fmt.Errorf("purchase buckets: %w", err)
	}
	return points, nil
}

// ProductMetrics computes the inventory counters in one pass. The
// availability buckets are recomputed from quantity, threshold and
// expiry rather than read from the stored hint, so a stale hint never
// skews the dashboard.
func (r *ReportRepo) ProductMetrics(ctx context.Context, asOf time.Time) (*reports.ProductMetrics, error) {
	query := `
		WITH scoped AS (
			SELECT
				category, price, quantity, threshold_value,
				(expiry_date IS NOT NULL AND expiry_date < $2::date) AS expired
			FROM products
			WHERE user_id = $1
		)
		SELECT
			COUNT(DISTINCT NULLIF(category, '')) AS category_count,
			COUNT(*) AS total_products,
			COUNT(*) FILTER (WHERE NOT expired AND quantity > 0 AND quantity <= threshold_value) AS low_stock_count,
			COUNT(*) FILTER (WHERE NOT expired AND quantity = 0) AS out_of_stock_count,
			COUNT(*) FILTER (WHERE expired) AS expired_count,
			COALESCE(SUM(quantity), 0) AS total_stock_quantity,
			COALESCE(SUM(price * quantity), 0) AS inventory_cost,
			COALESCE(SUM(price * (threshold_value - quantity + 1))
				FILTER (WHERE NOT expired AND quantity <= threshold_value), 0) AS restock_cost
		FROM scoped
	`

	var m reports.ProductMetrics
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, query, r.owner(ctx), asOf); err != nil {
		return nil, fmt.Errorf("product metrics: %w", err)
	}
	return &m, nil
}

// The paid sum is the amount actually received, not the invoiced total:
// an overpaid invoice (paid_amount > total_amount) reports what was paid.
const invoiceMetricsQuery = `
	SELECT
		COUNT(*) AS total_invoices,
		COUNT(*) FILTER (WHERE status = $2) AS unpaid_count,
		COUNT(*) FILTER (WHERE status = $3) AS paid_count,
		COUNT(*) FILTER (WHERE status = $4) AS overdue_count,
		COUNT(*) FILTER (WHERE status = $5) AS cancelled_count,
		COALESCE(SUM(sub_total) FILTER (WHERE status <> $5), 0) AS subtotal_sum,
		COALESCE(SUM(total_amount) FILTER (WHERE status <> $5), 0) AS sales_sum,
		COALESCE(SUM(paid_amount) FILTER (WHERE status = $3), 0) AS paid_sum,
		COALESCE(SUM(balance_due) FILTER (WHERE status IN ($2, $4)), 0) AS unpaid_sum,
		(
			SELECT COALESCE(SUM(l.quantity), 0)
			FROM invoice_lines l
			JOIN invoices i ON l.invoice_id = i.id
			WHERE i.user_id = $1 AND i.status <> $5
		) AS units_sold
	FROM invoices
	WHERE user_id = $1
`

// InvoiceMetrics computes the billing counters in one pass. Cancelled
// invoices count toward totals but are excluded from every sum.
func (r *ReportRepo) InvoiceMetrics(ctx context.Context) (*reports.InvoiceMetrics, error) {
	var m reports.InvoiceMetrics
	querier := r.txm.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &m, invoiceMetricsQuery,
		r.owner(ctx),
		string(invoice.StatusUnpaid),
		string(invoice.StatusPaid),
		string(invoice.StatusOverdue),
		string(invoice.StatusCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("invoice metrics: %w", err)
	}
	return &m, nil
}
