package points

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches points endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	router.GET("/me/points", append(acAll, handler.ListMine)...)

	users := router.Group("/companies/:companyId/users/:userId/points")
	users.GET("", append(acStaff, handler.ListForUser)...)
	users.POST("/adjust", append(acStaff, handler.Adjust)...)
}
