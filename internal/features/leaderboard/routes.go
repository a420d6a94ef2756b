package leaderboard

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches leaderboard endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll []gin.HandlerFunc) {
	router.GET("/companies/:companyId/courses/:courseId/leaderboard", append(acAll, handler.ForCourse)...)
}
