package dto

// OrderRequest is the request body for placing a single-product order.
type OrderRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}
