package company

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches company endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, superadminOnly []gin.HandlerFunc) {
	companies := router.Group("/companies")

	companies.GET("", append(superadminOnly, handler.List)...)
	companies.GET("/:companyId", append(superadminOnly, handler.GetByID)...)
	companies.POST("", append(superadminOnly, handler.Create)...)
	companies.PUT("/:companyId", append(superadminOnly, handler.Update)...)
	companies.DELETE("/:companyId", append(superadminOnly, handler.Delete)...)
}
