package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/invoice"
	"inventra/internal/domain/orders"
	"inventra/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler serves the invoice endpoints. Creation goes through the
// order coordinator so stock decrements and the invoice commit together.
type InvoiceHandler struct {
	*BaseHandler
	service     *invoice.Service
	coordinator *orders.Coordinator
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service, coordinator *orders.Coordinator) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service, coordinator: coordinator}
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	res, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res))
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.coordinator.CreateInvoice(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.parseID(c)
	if !ok {
		return
	}

	inv, err := h.service.Get(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Update handles PUT /invoices/:id.
func (h *InvoiceHandler) Update(c *gin.Context) {
	invoiceID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.Update(c.Request.Context(), invoiceID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *InvoiceHandler) parseID(c *gin.Context) (id.ID, bool) {
	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid invoice id").
			WithDetail("id", c.Param("id")))
		return id.Nil(), false
	}
	return invoiceID, true
}
