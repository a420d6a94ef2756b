package badge

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches badge endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	router.GET("/me/badges", append(acAll, handler.ListMine)...)

	badges := router.Group("/companies/:companyId/badges")
	badges.GET("", append(acAll, handler.List)...)
	badges.POST("", append(acStaff, handler.Create)...)
	badges.PUT("/:badgeId", append(acStaff, handler.Update)...)
	badges.DELETE("/:badgeId", append(acStaff, handler.Delete)...)
	badges.POST("/:badgeId/grant", append(acStaff, handler.Grant)...)
}
