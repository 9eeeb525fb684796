package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestInvoice() *Invoice {
	inv := New("user-1", testNow)
	inv.AddLine("SKU-001", "Widget", 6, types.MustMoney("100"))
	return inv
}

func TestRecalculate_DerivedMoneyFields(t *testing.T) {
	inv := newTestInvoice()

	inv.Recalculate(true, testNow)

	assert.True(t, inv.Lines[0].Total.Equal(types.MustMoney("600")))
	assert.True(t, inv.SubTotal.Equal(types.MustMoney("600")))
	assert.True(t, inv.TaxAmount.Equal(types.MustMoney("60")))
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("660")))
	assert.True(t, inv.BalanceDue.Equal(types.MustMoney("660")))
	assert.Equal(t, StatusUnpaid, inv.Status)
}

func TestRecalculate_MultiLineWithDiscount(t *testing.T) {
	inv := newTestInvoice()
	inv.AddLine("SKU-002", "Gadget", 2, types.MustMoney("25.50"))
	inv.DiscountAmount = types.MustMoney("11")

	inv.Recalculate(true, testNow)

	// 600 + 51 = 651 subtotal, 65.10 tax, minus 11 discount.
	assert.True(t, inv.SubTotal.Equal(types.MustMoney("651")))
	assert.True(t, inv.TaxAmount.Equal(types.MustMoney("65.10")))
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("705.10")))
}

func TestRecalculate_NegativeDiscountClamped(t *testing.T) {
	inv := newTestInvoice()
	inv.DiscountAmount = types.MustMoney("-50")

	inv.Recalculate(true, testNow)

	assert.True(t, inv.DiscountAmount.IsZero())
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("660")))
}

func TestRecalculate_Idempotent(t *testing.T) {
	inv := newTestInvoice()

	inv.Recalculate(true, testNow)
	first := *inv

	inv.Recalculate(false, testNow)

	assert.True(t, first.TotalAmount.Equal(inv.TotalAmount))
	assert.True(t, first.BalanceDue.Equal(inv.BalanceDue))
	assert.Equal(t, first.Status, inv.Status)
	assert.Equal(t, first.Reference, inv.Reference)
}

func TestRecalculate_ExplicitPaidSettlesInFull(t *testing.T) {
	inv := newTestInvoice()
	inv.Status = StatusPaid

	inv.Recalculate(true, testNow)

	assert.True(t, inv.PaidAmount.Equal(types.MustMoney("660")))
	assert.True(t, inv.BalanceDue.IsZero())
	assert.Equal(t, StatusPaid, inv.Status)
	assert.True(t, inv.NeedsReference())
}

func TestRecalculate_PartialPaymentStaysUnpaid(t *testing.T) {
	inv := newTestInvoice()
	inv.PaidAmount = types.MustMoney("300")

	inv.Recalculate(false, testNow)

	assert.True(t, inv.BalanceDue.Equal(types.MustMoney("360")))
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.False(t, inv.NeedsReference())
}

func TestRecalculate_FullPaymentDerivesPaid(t *testing.T) {
	// No explicit status edit: the balance alone drives the derivation.
	inv := newTestInvoice()
	inv.PaidAmount = types.MustMoney("660")

	inv.Recalculate(false, testNow)

	assert.Equal(t, StatusPaid, inv.Status)
	assert.True(t, inv.NeedsReference())
}

func TestRecalculate_ExplicitUnpaidOnPastDueBecomesOverdue(t *testing.T) {
	// The derivation overrides an explicit non-Cancelled status hint.
	inv := newTestInvoice()
	inv.DueDate = testNow.AddDate(0, 0, -1)
	inv.Status = StatusUnpaid

	inv.Recalculate(true, testNow)

	assert.Equal(t, StatusOverdue, inv.Status)
}

func TestRecalculate_CancelledIsSticky(t *testing.T) {
	inv := newTestInvoice()
	inv.Status = StatusCancelled
	inv.PaidAmount = types.MustMoney("660") // would derive Paid otherwise

	inv.Recalculate(true, testNow)

	assert.Equal(t, StatusCancelled, inv.Status)
	assert.False(t, inv.NeedsReference())
}

func TestRecalculate_ReferenceLifecycle(t *testing.T) {
	inv := newTestInvoice()
	inv.Status = StatusPaid
	inv.Recalculate(true, testNow)
	inv.Reference = "REF-001"

	// Editing away from Paid drops the reference.
	inv.Status = StatusUnpaid
	inv.PaidAmount = types.Zero()
	inv.Recalculate(true, testNow)
	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Empty(t, inv.Reference)

	// Settling again needs a fresh reference; the old one is gone.
	inv.Status = StatusPaid
	inv.Recalculate(true, testNow)
	assert.Equal(t, StatusPaid, inv.Status)
	assert.True(t, inv.NeedsReference())
}

func TestDeriveStatus(t *testing.T) {
	due := testNow.AddDate(0, 0, 5)
	past := testNow.AddDate(0, 0, -5)

	tests := []struct {
		name    string
		balance types.Money
		dueDate time.Time
		current Status
		want    Status
	}{
		{"settled", types.Zero(), due, StatusUnpaid, StatusPaid},
		{"overpaid", types.MustMoney("-10"), due, StatusUnpaid, StatusPaid},
		{"owing before due", types.MustMoney("100"), due, StatusUnpaid, StatusUnpaid},
		{"owing past due", types.MustMoney("100"), past, StatusUnpaid, StatusOverdue},
		{"settled past due", types.Zero(), past, StatusUnpaid, StatusPaid},
		{"cancelled stays cancelled", types.Zero(), due, StatusCancelled, StatusCancelled},
		{"cancelled past due stays cancelled", types.MustMoney("100"), past, StatusCancelled, StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.balance, tt.dueDate, tt.current, testNow)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	inv := New("user-1", testNow)

	assert.Equal(t, StatusUnpaid, inv.Status)
	assert.Equal(t, testNow, inv.InvoiceDate)
	assert.Equal(t, testNow.Add(DueTerm), inv.DueDate)
	assert.Empty(t, inv.Lines)
}

func TestAddLine_NumbersSequentially(t *testing.T) {
	inv := New("user-1", testNow)
	inv.AddLine("SKU-001", "Widget", 1, types.MustMoney("10"))
	inv.AddLine("SKU-002", "Gadget", 2, types.MustMoney("20"))

	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 1, inv.Lines[0].LineNo)
	assert.Equal(t, 2, inv.Lines[1].LineNo)
	assert.False(t, id.IsNil(inv.Lines[0].LineID))
}

func TestValidate(t *testing.T) {
	valid := newTestInvoice()
	assert.NoError(t, valid.Validate(context.Background()))

	noLines := New("user-1", testNow)
	assert.Error(t, noLines.Validate(context.Background()))

	noOwner := New("", testNow)
	noOwner.AddLine("SKU-001", "Widget", 1, types.MustMoney("10"))
	assert.Error(t, noOwner.Validate(context.Background()))

	badQty := New("user-1", testNow)
	badQty.AddLine("SKU-001", "Widget", 0, types.MustMoney("10"))
	assert.Error(t, badQty.Validate(context.Background()))

	badStatus := newTestInvoice()
	badStatus.Status = Status("Draft")
	assert.Error(t, badStatus.Validate(context.Background()))
}
