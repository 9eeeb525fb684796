// Package reports provides the read-side aggregations for the dashboard.
package reports

import (
	"inventra/internal/core/types"
)

// Period is the sales-over-time bucketing granularity.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
	PeriodYearly Period = "yearly"
)

// --- Top selling products ---

// TopProductsFilter bounds the top-sellers report.
type TopProductsFilter struct {
	// Limit is the number of products returned (default 5)
	Limit int

	// WindowDays is the trailing window (default 30)
	WindowDays int
}

// TopProductItem is one product group joined back to its current record.
type TopProductItem struct {
	SKU           string      `json:"productId"`
	Name          string      `json:"name"`
	Category      string      `json:"category,omitempty"`
	Price         types.Money `json:"price"`
	Remaining     int64       `json:"remainingQuantity"`
	TotalQuantity int64       `json:"totalQuantitySold"`
	TotalRevenue  types.Money `json:"totalRevenue"`
}

// TopProductsSummary aggregates the returned groups.
type TopProductsSummary struct {
	ProductCount             int         `json:"productCount"`
	TotalRevenue             types.Money `json:"totalRevenue"`
	TotalQuantity            int64       `json:"totalQuantitySold"`
	AverageRevenuePerProduct types.Money `json:"averageRevenuePerProduct"`
}

// TopProductsReport is the full top-sellers result.
type TopProductsReport struct {
	Items   []TopProductItem   `json:"items"`
	Summary TopProductsSummary `json:"summary"`
}

// --- Sales over time ---

// SalesOverTimeFilter bounds the time-bucketed report.
type SalesOverTimeFilter struct {
	Period Period

	// NumPeriods is the number of trailing calendar periods
	// (defaults: 30 days, 12 weeks, 5 years)
	NumPeriods int
}

// SalesPoint is the invoice side of one bucket.
type SalesPoint struct {
	PeriodKey    string      `json:"period"`
	Sales        types.Money `json:"sales"`
	InvoiceCount int64       `json:"invoiceCount"`
}

// PurchasePoint is the inventory-intake side of one bucket: the cost of
// products added during the period (price × quantity at creation).
type PurchasePoint struct {
	PeriodKey    string      `json:"period"`
	Purchases    types.Money `json:"purchases"`
	ProductCount int64       `json:"productCount"`
}

// SalesBucket is the outer join of both series on period key.
type SalesBucket struct {
	PeriodKey    string      `json:"period"`
	Sales        types.Money `json:"sales"`
	InvoiceCount int64       `json:"invoiceCount"`
	Purchases    types.Money `json:"purchases"`
	ProductCount int64       `json:"productCount"`
}

// SalesSummary aggregates both series over the whole window.
type SalesSummary struct {
	TotalSales         types.Money `json:"totalSales"`
	TotalPurchases     types.Money `json:"totalPurchases"`
	TotalInvoices      int64       `json:"totalInvoices"`
	TotalProductsAdded int64       `json:"totalProductsAdded"`
}

// SalesOverTimeReport is the full time-bucketed result, chronological.
type SalesOverTimeReport struct {
	Period  Period        `json:"period"`
	Buckets []SalesBucket `json:"buckets"`
	Summary SalesSummary  `json:"summary"`
}

// --- Single-pass dashboard metrics ---

// ProductMetrics are the inventory-side dashboard counters.
type ProductMetrics struct {
	CategoryCount      int64       `json:"categoryCount"`
	TotalProducts      int64       `json:"totalProducts"`
	LowStockCount      int64       `json:"lowStockCount"`
	OutOfStockCount    int64       `json:"outOfStockCount"`
	ExpiredCount       int64       `json:"expiredCount"`
	TotalStockQuantity int64       `json:"totalStockQuantity"`
	InventoryCost      types.Money `json:"inventoryCost"`

	// RestockCost is the spend needed to lift every non-expired
	// at-or-below-threshold product one unit above its threshold:
	// Σ price × (threshold − quantity + 1).
	RestockCost types.Money `json:"restockCost"`
}

// InvoiceMetrics are the billing-side dashboard counters. Cancelled
// invoices are excluded from every monetary sum; PaidSum is scoped to
// Paid invoices and UnpaidSum to the balance due of Unpaid and Overdue.
type InvoiceMetrics struct {
	TotalInvoices  int64 `json:"totalInvoices"`
	UnpaidCount    int64 `json:"unpaidCount"`
	PaidCount      int64 `json:"paidCount"`
	OverdueCount   int64 `json:"overdueCount"`
	CancelledCount int64 `json:"cancelledCount"`

	SubtotalSum types.Money `json:"subtotalSum"`
	SalesSum    types.Money `json:"salesSum"`
	PaidSum     types.Money `json:"paidSum"`
	UnpaidSum   types.Money `json:"unpaidSum"`

	UnitsSold int64 `json:"unitsSold"`
}
