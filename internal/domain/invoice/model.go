// Package invoice provides the invoice record, its derived financial
// fields, and the payment status state machine.
package invoice

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// Status is the payment lifecycle state.
//
// Unpaid is the initial state. Paid and Overdue are derived from balance
// and due date on every save. Cancelled is terminal: it is only ever set
// explicitly and is never entered or left by derivation.
type Status string

const (
	StatusUnpaid    Status = "Unpaid"
	StatusPaid      Status = "Paid"
	StatusOverdue   Status = "Overdue"
	StatusCancelled Status = "Cancelled"
)

// DueTerm is the default payment term applied when no due date is given.
const DueTerm = 15 * 24 * time.Hour

// Line is one invoice position. Name and Price are snapshots taken from
// the product at invoicing time; later product edits do not rewrite
// issued invoices.
type Line struct {
	LineID   id.ID       `db:"line_id" json:"-"`
	LineNo   int         `db:"line_no" json:"-"`
	SKU      string      `db:"sku" json:"productId"`
	Name     string      `db:"name" json:"name"`
	Quantity int64       `db:"quantity" json:"quantity"`
	Price    types.Money `db:"price" json:"price"`

	// Total is derived: Quantity × Price.
	Total types.Money `db:"total" json:"totalProductPrice"`
}

// Invoice is a customer invoice owned by a single user.
type Invoice struct {
	entity.BaseRecord

	// Number is the global sequential identifier (INV-0001).
	// Assigned once at creation, immutable.
	Number string `db:"number" json:"invoiceId"`

	// Reference is the payment reference (REF-001), present exactly
	// while the invoice is Paid.
	Reference string `db:"reference" json:"referenceNumber,omitempty"`

	InvoiceDate time.Time `db:"invoice_date" json:"invoiceDate"`
	DueDate     time.Time `db:"due_date" json:"dueDate"`

	CustomerName  string `db:"customer_name" json:"customerName,omitempty"`
	CustomerEmail string `db:"customer_email" json:"customerEmail,omitempty"`
	PaymentMethod string `db:"payment_method" json:"paymentMethod,omitempty"`
	Notes         string `db:"notes" json:"notes,omitempty"`

	Status Status `db:"status" json:"status"`

	// Derived money fields, recomputed on every persist.
	SubTotal       types.Money `db:"sub_total" json:"subTotal"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`
	PaidAmount     types.Money `db:"paid_amount" json:"paidAmount"`
	BalanceDue     types.Money `db:"balance_due" json:"balanceDue"`

	Lines []Line `db:"-" json:"products"`
}

// New creates an invoice with default dates and status.
func New(ownerID string, now time.Time) *Invoice {
	return &Invoice{
		BaseRecord:     entity.NewBaseRecord(ownerID),
		InvoiceDate:    now,
		DueDate:        now.Add(DueTerm),
		Status:         StatusUnpaid,
		SubTotal:       types.Zero(),
		TaxAmount:      types.Zero(),
		DiscountAmount: types.Zero(),
		TotalAmount:    types.Zero(),
		PaidAmount:     types.Zero(),
		BalanceDue:     types.Zero(),
		Lines:          make([]Line, 0),
	}
}

// AddLine appends a position with a price/name snapshot.
func (inv *Invoice) AddLine(sku, name string, quantity int64, price types.Money) {
	inv.Lines = append(inv.Lines, Line{
		LineID:   id.New(),
		LineNo:   len(inv.Lines) + 1,
		SKU:      sku,
		Name:     name,
		Quantity: quantity,
		Price:    price,
	})
}

// DeriveStatus is the authoritative status derivation. Pure.
//
// Cancelled is sticky and bypasses derivation entirely. Otherwise the
// balance and due date decide: settled balance means Paid, an overrun
// due date means Overdue, anything else is Unpaid. An explicit status
// edit to anything but Cancelled is only a hint that this function can
// override on every save.
func DeriveStatus(balanceDue types.Money, dueDate time.Time, current Status, now time.Time) Status {
	if current == StatusCancelled {
		return StatusCancelled
	}
	if balanceDue.LessThanOrEqual(types.Zero()) {
		return StatusPaid
	}
	if dueDate.Before(now) {
		return StatusOverdue
	}
	return StatusUnpaid
}

// Recalculate applies the full derivation in fixed order. Later steps
// depend on earlier ones; the order must not change.
//
// statusEdited reports whether the status field was explicitly set in
// this save (always true on create). Idempotent: recalculating an
// already-consistent invoice changes nothing.
//
// Reference assignment is the one impure part of the lifecycle and is
// left to the caller: after Recalculate, NeedsReference reports whether
// a new reference must be drawn.
func (inv *Invoice) Recalculate(statusEdited bool, now time.Time) {
	// 1. Line totals and subtotal.
	sub := types.Zero()
	for i := range inv.Lines {
		inv.Lines[i].Total = inv.Lines[i].Price.Mul(types.NewMoney(float64(inv.Lines[i].Quantity)))
		sub = sub.Add(inv.Lines[i].Total)
	}
	inv.SubTotal = sub

	// 2. Flat tax.
	inv.TaxAmount = inv.SubTotal.Mul(types.TaxRate)

	// 3. Total, with discount clamped to zero.
	if inv.DiscountAmount.IsNegative() {
		inv.DiscountAmount = types.Zero()
	}
	inv.TotalAmount = inv.SubTotal.Add(inv.TaxAmount).Sub(inv.DiscountAmount)

	// 4. Explicit transition to Paid without an amount means full
	// settlement.
	if statusEdited && inv.Status == StatusPaid && inv.PaidAmount.LessThanOrEqual(types.Zero()) {
		inv.PaidAmount = inv.TotalAmount
	}

	// 5. Balance.
	inv.BalanceDue = inv.TotalAmount.Sub(inv.PaidAmount)

	// 6. An explicit edit away from Paid drops the reference before
	// derivation runs: if derivation lands on Paid again, a fresh
	// reference is drawn.
	if statusEdited && inv.Status != StatusPaid {
		inv.Reference = ""
	}

	// 7. Status derivation, then the reference lifecycle invariant:
	// the reference exists exactly while the invoice is Paid.
	inv.Status = DeriveStatus(inv.BalanceDue, inv.DueDate, inv.Status, now)
	if inv.Status != StatusPaid {
		inv.Reference = ""
	}
}

// NeedsReference reports whether a payment reference must be assigned.
func (inv *Invoice) NeedsReference() bool {
	return inv.Status == StatusPaid && inv.Reference == ""
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if inv.OwnerID == "" {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "userId")
	}
	if len(inv.Lines) == 0 {
		return apperror.NewValidation("at least one product is required").
			WithDetail("field", "products")
	}
	for i, line := range inv.Lines {
		if line.SKU == "" {
			return apperror.NewValidation("productId is required").
				WithDetail("field", "products").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity < 1 {
			return apperror.NewValidation("quantity must be at least 1").
				WithDetail("field", "products").
				WithDetail("lineNo", i+1)
		}
		if line.Price.IsNegative() {
			return apperror.NewValidation("price cannot be negative").
				WithDetail("field", "products").
				WithDetail("lineNo", i+1)
		}
	}
	if !isValidStatus(inv.Status) {
		return apperror.NewValidation("invalid status").
			WithDetail("field", "status").
			WithDetail("value", string(inv.Status))
	}
	return nil
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}
