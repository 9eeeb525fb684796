package report_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The Paid bucket reports money received, so it must aggregate
// paid_amount; summing total_amount would under-report overpaid
// invoices (paid_amount > total_amount, balance_due < 0).
func TestInvoiceMetricsQuery_PaidSumColumn(t *testing.T) {
	assert.Contains(t, invoiceMetricsQuery,
		"SUM(paid_amount) FILTER (WHERE status = $3) AS paid_sum")
	assert.NotContains(t, invoiceMetricsQuery,
		"SUM(total_amount) FILTER (WHERE status = $3)")
}

func TestInvoiceMetricsQuery_CancelledExcludedFromSums(t *testing.T) {
	for _, sum := range []string{"subtotal_sum", "sales_sum"} {
		line := lineWith(invoiceMetricsQuery, sum)
		assert.Contains(t, line, "FILTER (WHERE status <> $5)", "sum %s", sum)
	}
}

func lineWith(query, substr string) string {
	for _, line := range strings.Split(query, "\n") {
		if strings.Contains(line, substr) {
			return line
		}
	}
	return ""
}
