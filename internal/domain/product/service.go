package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inventra/internal/core/apperror"
	appctx "inventra/internal/core/context"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/pkg/logger"
)

// ImageStore removes externally hosted product images.
// Deletion is best-effort: failures are logged, never propagated.
type ImageStore interface {
	Delete(ctx context.Context, publicID string) error
}

// Service provides business logic for the product catalog.
type Service struct {
	repo   Repository
	images ImageStore
	now    func() time.Time
}

// NewService creates a new product service.
func NewService(repo Repository, images ImageStore) *Service {
	return &Service{
		repo:   repo,
		images: images,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create normalizes and persists a new product.
// Fails with Conflict when the owner already has a product with the SKU.
func (s *Service) Create(ctx context.Context, p *Product) (*Product, error) {
	p.OwnerID = appctx.GetUserID(ctx)
	p.Normalize()
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewDuplicate("product", "productId", p.SKU)
	}

	p.RefreshAvailability(s.now())
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.Info(ctx, "product created", "product_id", p.SKU, "id", p.ID)
	return p, nil
}

// BulkRow is one raw record from the bulk-import adapter. Values arrive
// as strings exactly as read from the upload.
type BulkRow struct {
	SKU            string
	Name           string
	Category       string
	Price          string
	Quantity       string
	Unit           string
	ThresholdValue string
	ExpiryDate     string
	Supplier       string
	Description    string
}

// BulkRowError describes one rejected row, identified by the fields the
// caller supplied.
type BulkRowError struct {
	SKU        string `json:"productId"`
	Name       string `json:"name"`
	ExpiryDate string `json:"expiryDate,omitempty"`
	Message    string `json:"message"`
}

// BulkResult is the partial-success outcome of a bulk import.
type BulkResult struct {
	Added  int            `json:"addedCount"`
	Errors []BulkRowError `json:"errors"`
}

// BulkCreate imports rows, collecting per-row failures and continuing.
// Unlike Create, it refuses rows whose expiry date already passed:
// pre-expired stock is assumed to be an upload mistake.
// Returns ValidationError only when zero rows survive.
func (s *Service) BulkCreate(ctx context.Context, rows []BulkRow) (*BulkResult, error) {
	ownerID := appctx.GetUserID(ctx)
	now := s.now()
	today := truncateToDay(now)

	result := &BulkResult{Errors: make([]BulkRowError, 0)}
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		reject := func(msg string) {
			result.Errors = append(result.Errors, BulkRowError{
				SKU:        row.SKU,
				Name:       row.Name,
				ExpiryDate: row.ExpiryDate,
				Message:    msg,
			})
		}

		if row.SKU == "" || row.Name == "" {
			reject("productId and name are required")
			continue
		}
		if seen[row.SKU] {
			reject("duplicate productId within the uploaded file")
			continue
		}

		var expiry *time.Time
		if row.ExpiryDate != "" {
			parsed, err := ParseDate(row.ExpiryDate)
			if err != nil {
				reject("invalid expiry date")
				continue
			}
			if parsed.Before(today) {
				reject("expiry date is in the past")
				continue
			}
			expiry = &parsed
		}

		exists, err := s.repo.ExistsBySKU(ctx, row.SKU)
		if err != nil {
			return nil, err
		}
		if exists {
			reject("product with this productId already exists")
			continue
		}

		p := New(ownerID, row.SKU, row.Name, now)
		p.Category = row.Category
		p.Price = parseMoney(row.Price)
		p.Quantity = parseInt(row.Quantity)
		p.Unit = row.Unit
		p.ThresholdValue = parseInt(row.ThresholdValue)
		p.ExpiryDate = expiry
		p.Supplier = row.Supplier
		p.Description = row.Description
		p.Normalize()
		p.RefreshAvailability(now)

		if err := s.repo.Create(ctx, p); err != nil {
			if apperror.IsConflict(err) {
				reject("product with this productId already exists")
				continue
			}
			return nil, err
		}

		seen[row.SKU] = true
		result.Added++
	}

	if result.Added == 0 && len(rows) > 0 {
		return result, apperror.NewValidation("no valid rows in uploaded file").
			WithDetail("errors", result.Errors)
	}

	logger.Info(ctx, "bulk import finished",
		"added", result.Added, "rejected", len(result.Errors))
	return result, nil
}

// Get returns an owned product with availability recomputed as of now.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	p.RefreshAvailability(s.now())
	return p, nil
}

// List returns owned products; availability is recomputed per row.
func (s *Service) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*Product], error) {
	res, err := s.repo.List(ctx, f)
	if err != nil {
		return domain.ListResult[*Product]{}, err
	}
	now := s.now()
	for _, p := range res.Items {
		p.RefreshAvailability(now)
	}
	return res, nil
}

// UpdateInput carries the externally mutable product fields. Nil pointers
// leave the current value untouched.
type UpdateInput struct {
	SKU            *string
	Name           *string
	Category       *string
	Price          *types.Money
	Quantity       *int64
	Unit           *string
	ThresholdValue *int64
	ExpiryDate     *string // "" clears the date
	ImageURL       *string
	Supplier       *string
	Description    *string
}

// Update merges the input into the stored product, re-normalizes and
// recomputes availability. The SKU is immutable: any attempt to change it
// fails with ValidationError.
func (s *Service) Update(ctx context.Context, productID id.ID, in UpdateInput) (*Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if in.SKU != nil && *in.SKU != p.SKU {
		return nil, apperror.NewValidation("productId cannot be changed").
			WithDetail("field", "productId")
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.ThresholdValue != nil {
		p.ThresholdValue = *in.ThresholdValue
	}
	if in.ExpiryDate != nil {
		if *in.ExpiryDate == "" {
			p.ExpiryDate = nil
		} else {
			parsed, err := ParseDate(*in.ExpiryDate)
			if err != nil {
				return nil, apperror.NewValidation("invalid expiry date").
					WithDetail("field", "expiryDate")
			}
			// Unlike bulk import, a past date is allowed here: the
			// record simply reads as Expired.
			p.ExpiryDate = &parsed
		}
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.Supplier != nil {
		p.Supplier = *in.Supplier
	}
	if in.Description != nil {
		p.Description = *in.Description
	}

	p.Normalize()
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	p.RefreshAvailability(s.now())

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the product and best-effort removes its hosted image.
// No stock restoration happens anywhere.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return err
	}

	if p.ImagePublicID != "" && s.images != nil {
		if err := s.images.Delete(ctx, p.ImagePublicID); err != nil {
			logger.Warn(ctx, "failed to delete product image",
				"product_id", p.SKU, "public_id", p.ImagePublicID, "error", err)
		}
	}

	logger.Info(ctx, "product deleted", "product_id", p.SKU, "id", p.ID)
	return nil
}

// OrderDecrement validates and applies a stock decrement for an order.
// Must run inside the order coordinator's transaction so that a failed
// invoice creation rolls the decrement back.
func (s *Service) OrderDecrement(ctx context.Context, sku string, qty int64) (*Product, error) {
	if qty <= 0 {
		return nil, apperror.NewValidation("order quantity must be a positive integer").
			WithDetail("field", "quantity")
	}

	p, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if ComputeAvailability(p.Quantity, p.ThresholdValue, p.ExpiryDate, now) == StatusExpired {
		return nil, apperror.NewInvalidState("cannot order an expired product").
			WithDetail("product_id", p.SKU)
	}
	if qty > p.Quantity {
		return nil, apperror.NewInsufficientStock(p.SKU, qty, p.Quantity)
	}

	updated, err := s.repo.DecrementStock(ctx, p.ID, qty)
	if err != nil {
		if errors.Is(err, ErrNotDecremented) {
			// Lost the race: stock changed between the read and the
			// guarded update.
			fresh, ferr := s.repo.GetBySKU(ctx, sku)
			if ferr == nil && fresh.Quantity < qty {
				return nil, apperror.NewInsufficientStock(p.SKU, qty, fresh.Quantity)
			}
			return nil, apperror.NewConcurrentModification("product", p.SKU)
		}
		return nil, err
	}

	updated.RefreshAvailability(now)
	return updated, nil
}

// --- parsing helpers (bulk import values arrive as raw strings) ---

var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006", "2006/01/02"}

// ParseDate accepts the date formats tolerated on uploads and API input,
// truncated to the day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
}

// parseMoney and parseInt default to zero on malformed input, matching
// the permissive normalization of single-product create.
func parseMoney(s string) types.Money {
	m, err := types.NewMoneyFromString(strings.TrimSpace(s))
	if err != nil || m.IsNegative() {
		return types.Zero()
	}
	return m
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
