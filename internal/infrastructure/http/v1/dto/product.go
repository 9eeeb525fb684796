package dto

import (
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/types"
	"inventra/internal/domain/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	ProductID      string      `json:"productId" binding:"required"`
	Name           string      `json:"name" binding:"required"`
	Category       string      `json:"category"`
	Price          types.Money `json:"price"`
	Quantity       int64       `json:"quantity"`
	Unit           string      `json:"unit"`
	ThresholdValue int64       `json:"thresholdValue"`
	ExpiryDate     string      `json:"expiryDate"`
	ImageURL       string      `json:"imageUrl"`
	ImagePublicID  string      `json:"imagePublicId"`
	Supplier       string      `json:"supplier"`
	Description    string      `json:"description"`
}

// ToEntity converts DTO to domain entity. Owner is assigned by the
// service from context.
func (r *CreateProductRequest) ToEntity(now time.Time) (*product.Product, error) {
	p := product.New("", r.ProductID, r.Name, now)
	p.Category = r.Category
	p.Price = r.Price
	p.Quantity = r.Quantity
	p.Unit = r.Unit
	p.ThresholdValue = r.ThresholdValue
	p.ImageURL = r.ImageURL
	p.ImagePublicID = r.ImagePublicID
	p.Supplier = r.Supplier
	p.Description = r.Description

	if r.ExpiryDate != "" {
		parsed, err := product.ParseDate(r.ExpiryDate)
		if err != nil {
			return nil, apperror.NewValidation("invalid expiry date").
				WithDetail("field", "expiryDate")
		}
		p.ExpiryDate = &parsed
	}
	return p, nil
}

// UpdateProductRequest is the request body for updating a product.
// Absent fields keep their stored value; productId may be echoed back
// unchanged but never altered.
type UpdateProductRequest struct {
	ProductID      *string      `json:"productId"`
	Name           *string      `json:"name"`
	Category       *string      `json:"category"`
	Price          *types.Money `json:"price"`
	Quantity       *int64       `json:"quantity"`
	Unit           *string      `json:"unit"`
	ThresholdValue *int64       `json:"thresholdValue"`
	ExpiryDate     *string      `json:"expiryDate"`
	ImageURL       *string      `json:"imageUrl"`
	Supplier       *string      `json:"supplier"`
	Description    *string      `json:"description"`
}

// ToInput converts DTO to the service update input.
func (r *UpdateProductRequest) ToInput() product.UpdateInput {
	return product.UpdateInput{
		SKU:            r.ProductID,
		Name:           r.Name,
		Category:       r.Category,
		Price:          r.Price,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		ThresholdValue: r.ThresholdValue,
		ExpiryDate:     r.ExpiryDate,
		ImageURL:       r.ImageURL,
		Supplier:       r.Supplier,
		Description:    r.Description,
	}
}
