package achievement

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches achievement endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	router.GET("/me/achievements", append(acAll, handler.ListMine)...)

	courses := router.Group("/companies/:companyId/courses/:courseId/achievements")
	courses.GET("", append(acAll, handler.List)...)
	courses.POST("", append(acStaff, handler.Create)...)

	router.PUT("/companies/:companyId/achievements/:achievementId", append(acStaff, handler.Update)...)
	router.DELETE("/companies/:companyId/achievements/:achievementId", append(acStaff, handler.Delete)...)
}
