// Package product provides the inventory product record and its
// availability derivation.
package product

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/types"
)

// Status is the derived availability of a product.
// It is persisted as a hint but recomputed on every read and write:
// an item can expire between writes without being touched.
type Status string

const (
	StatusInStock    Status = "In Stock"
	StatusLowStock   Status = "Low Stock"
	StatusOutOfStock Status = "Out of Stock"
	StatusExpired    Status = "Expired"
)

// Product represents an inventory item owned by a single user.
type Product struct {
	entity.BaseRecord

	// SKU is the caller-supplied product identifier, unique per owner.
	// Immutable after creation.
	SKU string `db:"sku" json:"productId"`

	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category,omitempty"`

	// Price per unit. Non-negative.
	Price types.Money `db:"price" json:"price"`

	// Quantity on hand. Non-negative integer.
	Quantity int64 `db:"quantity" json:"quantity"`

	Unit string `db:"unit" json:"unit,omitempty"`

	// ThresholdValue is the reorder trigger: quantity at or below it
	// (but above zero) reads as Low Stock.
	ThresholdValue int64 `db:"threshold_value" json:"thresholdValue"`

	// ExpiryDate is date-only; nil means the item does not expire.
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	ImageURL      string `db:"image_url" json:"imageUrl,omitempty"`
	ImagePublicID string `db:"image_public_id" json:"-"`

	Supplier    string `db:"supplier" json:"supplier,omitempty"`
	Description string `db:"description" json:"description,omitempty"`

	// Availability is derived, never authoritative.
	Availability Status `db:"availability_status" json:"availabilityStatus"`
}

// New creates a product owned by ownerID with availability computed
// as of now.
func New(ownerID, sku, name string, now time.Time) *Product {
	p := &Product{
		BaseRecord: entity.NewBaseRecord(ownerID),
		SKU:        sku,
		Name:       name,
		Price:      types.Zero(),
	}
	p.RefreshAvailability(now)
	return p
}

// ComputeAvailability derives the availability status. Pure and total.
//
// Precedence: Expired (expiry strictly before today, date-truncated)
// dominates regardless of quantity; then Out of Stock (quantity zero);
// then Low Stock (quantity at or below threshold); else In Stock.
// An item expiring today is not yet expired.
func ComputeAvailability(quantity, threshold int64, expiry *time.Time, today time.Time) Status {
	day := truncateToDay(today)
	if expiry != nil && truncateToDay(*expiry).Before(day) {
		return StatusExpired
	}
	if quantity == 0 {
		return StatusOutOfStock
	}
	if quantity <= threshold {
		return StatusLowStock
	}
	return StatusInStock
}

// RefreshAvailability recomputes the persisted availability hint.
func (p *Product) RefreshAvailability(now time.Time) {
	p.Availability = ComputeAvailability(p.Quantity, p.ThresholdValue, p.ExpiryDate, now)
}

// Normalize clamps numeric fields to their valid ranges and truncates the
// expiry date to midnight.
func (p *Product) Normalize() {
	if p.Price.IsNegative() {
		p.Price = types.Zero()
	}
	if p.Quantity < 0 {
		p.Quantity = 0
	}
	if p.ThresholdValue < 0 {
		p.ThresholdValue = 0
	}
	if p.ExpiryDate != nil {
		d := truncateToDay(*p.ExpiryDate)
		p.ExpiryDate = &d
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("productId is required").
			WithDetail("field", "productId")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.OwnerID == "" {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "userId")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}
	if p.Quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}
	if p.ThresholdValue < 0 {
		return apperror.NewValidation("thresholdValue cannot be negative").
			WithDetail("field", "thresholdValue")
	}
	return nil
}

// InventoryValue returns price multiplied by quantity on hand.
func (p *Product) InventoryValue() types.Money {
	return p.Price.Mul(types.NewMoney(float64(p.Quantity)))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
