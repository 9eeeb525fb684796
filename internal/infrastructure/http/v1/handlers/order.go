package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/domain/orders"
	"inventra/internal/infrastructure/http/v1/dto"
)

// OrderHandler serves the order endpoint.
type OrderHandler struct {
	*BaseHandler
	coordinator *orders.Coordinator
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, coordinator *orders.Coordinator) *OrderHandler {
	return &OrderHandler{BaseHandler: base, coordinator: coordinator}
}

// Place handles POST /order: decrement stock and create the matching
// invoice atomically.
func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.OrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.coordinator.PlaceOrder(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}
