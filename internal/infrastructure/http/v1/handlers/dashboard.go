package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/domain/reports"
)

// DashboardHandler serves the aggregated dashboard endpoints.
type DashboardHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(base *BaseHandler, service *reports.Service) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, service: service}
}

// TopProducts handles GET /dashboard/top-products.
func (h *DashboardHandler) TopProducts(c *gin.Context) {
	f := reports.TopProductsFilter{
		Limit:      h.ParseIntQuery(c, "limit", 0),
		WindowDays: h.ParseIntQuery(c, "days", 0),
	}

	report, err := h.service.TopSellingProducts(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// SalesOverTime handles GET /dashboard/sales-over-time.
func (h *DashboardHandler) SalesOverTime(c *gin.Context) {
	f := reports.SalesOverTimeFilter{
		Period:     reports.Period(c.DefaultQuery("period", string(reports.PeriodDaily))),
		NumPeriods: h.ParseIntQuery(c, "periods", 0),
	}

	report, err := h.service.SalesOverTime(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// ProductMetrics handles GET /dashboard/product-metrics.
func (h *DashboardHandler) ProductMetrics(c *gin.Context) {
	m, err := h.service.ProductMetrics(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// InvoiceMetrics handles GET /dashboard/invoice-metrics.
func (h *DashboardHandler) InvoiceMetrics(c *gin.Context) {
	m, err := h.service.InvoiceMetrics(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}
