// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// RecordRouteHandler defines the standard CRUD surface shared by the
// product and invoice handlers.
type RecordRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// BulkImportHandler is an optional interface for records that support
// bulk uploads.
type BulkImportHandler interface {
	BulkImport(c *gin.Context)
}

// RegisterRecordRoutes registers standard CRUD routes for a record type.
// If the handler also supports bulk import, that route is registered
// automatically.
func RegisterRecordRoutes(group *gin.RouterGroup, handler RecordRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)

	if bulk, ok := handler.(BulkImportHandler); ok {
		group.POST("/bulk", bulk.BulkImport)
	}
}
