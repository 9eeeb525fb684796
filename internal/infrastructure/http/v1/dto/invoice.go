package dto

import (
	"time"

	"inventra/internal/core/types"
	"inventra/internal/domain/invoice"
	"inventra/internal/domain/orders"
)

// --- Request DTOs ---

// InvoiceLineRequest is one requested invoice position.
type InvoiceLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

// CreateInvoiceRequest is the request body for creating a multi-line
// invoice. Prices come from the product records, never from the client.
type CreateInvoiceRequest struct {
	Products       []InvoiceLineRequest `json:"products" binding:"required,min=1,dive"`
	InvoiceDate    *time.Time           `json:"invoiceDate"`
	DueDate        *time.Time           `json:"dueDate"`
	CustomerName   string               `json:"customerName"`
	CustomerEmail  string               `json:"customerEmail"`
	PaymentMethod  string               `json:"paymentMethod"`
	Notes          string               `json:"notes"`
	Status         string               `json:"status"`
	DiscountAmount *types.Money         `json:"discountAmount"`
	PaidAmount     *types.Money         `json:"paidAmount"`
}

// ToInput converts DTO to the coordinator input.
func (r *CreateInvoiceRequest) ToInput() orders.InvoiceInput {
	in := orders.InvoiceInput{
		Lines:         make([]orders.InvoiceLineInput, 0, len(r.Products)),
		InvoiceDate:   r.InvoiceDate,
		DueDate:       r.DueDate,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
		Status:        invoice.Status(r.Status),
	}
	for _, line := range r.Products {
		in.Lines = append(in.Lines, orders.InvoiceLineInput{
			SKU:      line.ProductID,
			Quantity: line.Quantity,
		})
	}
	if r.DiscountAmount != nil {
		s := r.DiscountAmount.String()
		in.DiscountAmount = &s
	}
	if r.PaidAmount != nil {
		s := r.PaidAmount.String()
		in.PaidAmount = &s
	}
	return in
}

// UpdateInvoiceRequest is the request body for updating an invoice.
// Only the allow-listed fields are accepted; number, reference and tax
// are derived server-side and silently ignored if sent.
type UpdateInvoiceRequest struct {
	Status         *string      `json:"status"`
	CustomerName   *string      `json:"customerName"`
	CustomerEmail  *string      `json:"customerEmail"`
	DueDate        *time.Time   `json:"dueDate"`
	DiscountAmount *types.Money `json:"discountAmount"`
	PaymentMethod  *string      `json:"paymentMethod"`
	Notes          *string      `json:"notes"`
	PaidAmount     *types.Money `json:"paidAmount"`
}

// ToInput converts DTO to the service update input.
func (r *UpdateInvoiceRequest) ToInput() invoice.UpdateInput {
	in := invoice.UpdateInput{
		CustomerName:   r.CustomerName,
		CustomerEmail:  r.CustomerEmail,
		DueDate:        r.DueDate,
		DiscountAmount: r.DiscountAmount,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
		PaidAmount:     r.PaidAmount,
	}
	if r.Status != nil {
		status := invoice.Status(*r.Status)
		in.Status = &status
	}
	return in
}
