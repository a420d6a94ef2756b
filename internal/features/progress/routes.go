package progress

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches progress endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	courses := router.Group("/companies/:companyId/courses/:courseId")

	courses.GET("/progress", append(acAll, handler.GetMine)...)
	courses.GET("/progress/:userId", append(acStaff, handler.GetForUser)...)
}
