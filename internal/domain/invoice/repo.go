package invoice

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines persistence operations for invoices.
// Lookups are owner-scoped via context; lines are loaded and saved
// together with their invoice.
type Repository interface {
	// Create inserts the invoice and its lines
	Create(ctx context.Context, inv *Invoice) error

	// GetByID retrieves an invoice with lines by internal ID
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// GetByNumber retrieves an invoice with lines by its INV number
	GetByNumber(ctx context.Context, number string) (*Invoice, error)

	// Update rewrites the invoice header (with optimistic locking).
	// Lines are immutable after creation: only header fields change.
	Update(ctx context.Context, inv *Invoice) error

	// Delete removes the invoice and its lines (hard delete, no restock)
	Delete(ctx context.Context, invoiceID id.ID) error

	// List retrieves invoices with filtering and pagination
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Invoice], error)

	// MarkOverdue flips Unpaid invoices with a positive balance and a due
	// date before asOf to Overdue, across all owners. Used by the nightly
	// sweep; returns the number of rows updated.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}
