package product

import (
	"context"
	"errors"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines persistence operations for products.
// All lookups are scoped to the authenticated owner from context;
// a record owned by someone else is indistinguishable from a missing one.
type Repository interface {
	// Create inserts a new product
	Create(ctx context.Context, p *Product) error

	// GetByID retrieves a product by internal ID
	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	// GetBySKU retrieves a product by caller-supplied identifier
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// Update modifies an existing product (with optimistic locking)
	Update(ctx context.Context, p *Product) error

	// Delete removes the product (hard delete)
	Delete(ctx context.Context, productID id.ID) error

	// List retrieves products with filtering and pagination
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Product], error)

	// ExistsBySKU checks whether the owner already has a product with sku
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// DecrementStock atomically subtracts qty from the product's quantity,
	// guarded by `quantity >= qty`, and refreshes the availability hint in
	// the same statement. Returns the updated row, or ErrNotDecremented
	// when the guard rejected the update.
	DecrementStock(ctx context.Context, productID id.ID, qty int64) (*Product, error)

	// MarkExpired flips the availability hint to Expired for every row,
	// across all owners, whose expiry date has passed as of asOf. Used by
	// the nightly sweep; returns the number of rows updated.
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
}

// ErrNotDecremented is returned by DecrementStock when the conditional
// update matched the row but the stock guard rejected it.
var ErrNotDecremented = errors.New("stock not decremented")
