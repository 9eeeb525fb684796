package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeAvailability(t *testing.T) {
	today := time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		quantity  int64
		threshold int64
		expiry    *time.Time
		want      Status
	}{
		{"plenty of stock", 100, 5, nil, StatusInStock},
		{"exactly at threshold", 5, 5, nil, StatusLowStock},
		{"below threshold", 3, 5, nil, StatusLowStock},
		{"one above threshold", 6, 5, nil, StatusInStock},
		{"zero quantity", 0, 5, nil, StatusOutOfStock},
		{"zero quantity zero threshold", 0, 0, nil, StatusOutOfStock},
		{"expired dominates quantity", 100, 5, date(2026, 6, 14), StatusExpired},
		{"expired dominates out of stock", 0, 5, date(2026, 1, 1), StatusExpired},
		{"expiring today is not expired", 100, 5, date(2026, 6, 15), StatusInStock},
		{"future expiry", 100, 5, date(2027, 1, 1), StatusInStock},
		{"future expiry low stock", 2, 5, date(2027, 1, 1), StatusLowStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAvailability(tt.quantity, tt.threshold, tt.expiry, today)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeAvailability_TimeOfDayIgnored(t *testing.T) {
	// Expiry comparison is date-only: an expiry stamped 23:59 yesterday
	// is expired even when "now" is 00:01 today.
	now := time.Date(2026, 6, 15, 0, 1, 0, 0, time.UTC)
	expiry := time.Date(2026, 6, 14, 23, 59, 0, 0, time.UTC)

	got := ComputeAvailability(10, 5, &expiry, now)
	assert.Equal(t, StatusExpired, got)
}

func TestNormalize_ClampsAndTruncates(t *testing.T) {
	expiry := time.Date(2026, 6, 20, 15, 45, 30, 0, time.UTC)
	p := &Product{
		Price:          types.NewMoney(-10),
		Quantity:       -5,
		ThresholdValue: -1,
		ExpiryDate:     &expiry,
	}

	p.Normalize()

	assert.True(t, p.Price.IsZero())
	assert.Equal(t, int64(0), p.Quantity)
	assert.Equal(t, int64(0), p.ThresholdValue)
	assert.Equal(t, time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC), *p.ExpiryDate)
}

func TestValidate(t *testing.T) {
	now := time.Now()

	valid := New("user-1", "SKU-001", "Widget", now)
	assert.NoError(t, valid.Validate(context.Background()))

	noSKU := New("user-1", "", "Widget", now)
	assert.Error(t, noSKU.Validate(context.Background()))

	noName := New("user-1", "SKU-001", "", now)
	assert.Error(t, noName.Validate(context.Background()))

	noOwner := New("", "SKU-001", "Widget", now)
	assert.Error(t, noOwner.Validate(context.Background()))

	negPrice := New("user-1", "SKU-001", "Widget", now)
	negPrice.Price = types.NewMoney(-1)
	assert.Error(t, negPrice.Validate(context.Background()))
}

func TestInventoryValue(t *testing.T) {
	p := New("user-1", "SKU-001", "Widget", time.Now())
	p.Price = types.MustMoney("12.50")
	p.Quantity = 4

	assert.True(t, p.InventoryValue().Equal(types.MustMoney("50")))
}

func TestNew_DerivesAvailability(t *testing.T) {
	p := New("user-1", "SKU-001", "Widget", time.Now())
	// Fresh product has zero quantity.
	assert.Equal(t, StatusOutOfStock, p.Availability)
	assert.Equal(t, 1, p.Version)
	assert.False(t, id.IsNil(p.ID))
}
