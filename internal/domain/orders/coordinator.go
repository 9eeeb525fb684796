// Package orders couples stock decrements with invoice creation.
//
// Ordering a product and invoicing it are one business fact; the
// coordinator runs both inside a single storage transaction, so a failed
// invoice creation rolls the stock decrement back and vice versa.
package orders

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	appctx "inventra/internal/core/context"
	"inventra/internal/core/tx"
	"inventra/internal/core/types"
	"inventra/internal/domain/invoice"
	"inventra/internal/domain/product"
	"inventra/pkg/logger"
)

// Coordinator orchestrates the two-record order mutation.
type Coordinator struct {
	products *product.Service
	invoices *invoice.Service
	txm      tx.Manager
	now      func() time.Time
}

// NewCoordinator creates an order coordinator.
func NewCoordinator(products *product.Service, invoices *invoice.Service, txm tx.Manager) *Coordinator {
	return &Coordinator{
		products: products,
		invoices: invoices,
		txm:      txm,
		now:      time.Now,
	}
}

// WithClock overrides the coordinator clock. For tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// OrderResult carries both records touched by an order.
type OrderResult struct {
	Product *product.Product `json:"product"`
	Invoice *invoice.Invoice `json:"invoice"`
}

// PlaceOrder decrements stock for a single product and creates the
// matching single-line Unpaid invoice.
//
// All stock and expiry validation happens before any mutation; on any
// failure inside the transaction, neither record changes.
func (c *Coordinator) PlaceOrder(ctx context.Context, sku string, qty int64) (*OrderResult, error) {
	var result OrderResult

	err := c.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := c.products.OrderDecrement(ctx, sku, qty)
		if err != nil {
			return err
		}

		inv := invoice.New(appctx.GetUserID(ctx), c.now())
		inv.AddLine(p.SKU, p.Name, qty, p.Price)

		created, err := c.invoices.Create(ctx, inv)
		if err != nil {
			return err
		}

		result.Product = p
		result.Invoice = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order placed",
		"product_id", result.Product.SKU,
		"quantity", qty,
		"invoice_id", result.Invoice.Number)
	return &result, nil
}

// InvoiceLineInput is one requested position of a manual invoice.
type InvoiceLineInput struct {
	SKU      string
	Quantity int64
}

// InvoiceInput is a manual multi-line invoice request.
type InvoiceInput struct {
	Lines          []InvoiceLineInput
	InvoiceDate    *time.Time
	DueDate        *time.Time
	CustomerName   string
	CustomerEmail  string
	PaymentMethod  string
	Notes          string
	Status         invoice.Status
	DiscountAmount *string // decimal string, optional
	PaidAmount     *string // decimal string, optional
}

// CreateInvoice is the batch generalization of PlaceOrder: every line is
// validated and its stock decremented, then the multi-line invoice is
// created, all in one transaction.
func (c *Coordinator) CreateInvoice(ctx context.Context, in InvoiceInput) (*invoice.Invoice, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.NewValidation("at least one product is required").
			WithDetail("field", "products")
	}

	var created *invoice.Invoice
	err := c.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv := invoice.New(appctx.GetUserID(ctx), c.now())
		if in.InvoiceDate != nil {
			inv.InvoiceDate = *in.InvoiceDate
		}
		if in.DueDate != nil {
			inv.DueDate = *in.DueDate
		}
		inv.CustomerName = in.CustomerName
		inv.CustomerEmail = in.CustomerEmail
		inv.PaymentMethod = in.PaymentMethod
		inv.Notes = in.Notes
		if in.Status != "" {
			inv.Status = in.Status
		}
		if in.DiscountAmount != nil {
			d, err := parseMoney(*in.DiscountAmount, "discountAmount")
			if err != nil {
				return err
			}
			inv.DiscountAmount = d
		}
		if in.PaidAmount != nil {
			p, err := parseMoney(*in.PaidAmount, "paidAmount")
			if err != nil {
				return err
			}
			inv.PaidAmount = p
		}

		for _, line := range in.Lines {
			p, err := c.products.OrderDecrement(ctx, line.SKU, line.Quantity)
			if err != nil {
				return err
			}
			inv.AddLine(p.SKU, p.Name, line.Quantity, p.Price)
		}

		result, err := c.invoices.Create(ctx, inv)
		if err != nil {
			return err
		}
		created = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func parseMoney(s, field string) (types.Money, error) {
	m, err := types.NewMoneyFromString(s)
	if err != nil || m.IsNegative() {
		return types.Zero(), apperror.NewValidation("invalid amount").
			WithDetail("field", field)
	}
	return m, nil
}
