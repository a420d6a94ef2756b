package user

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches user endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	router.GET("/me", append(acAll, handler.Me)...)

	users := router.Group("/companies/:companyId/users")

	users.GET("", append(acStaff, handler.List)...)
	users.POST("", append(acStaff, handler.Create)...)
	users.PUT("/:userId", append(acStaff, handler.Update)...)
	users.DELETE("/:userId", append(acStaff, handler.Delete)...)
}
