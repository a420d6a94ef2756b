package learning

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches completion endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll []gin.HandlerFunc) {
	scope := router.Group("/companies/:companyId")

	scope.POST("/chapters/:chapterId/complete", append(acAll, handler.CompleteChapter)...)
	scope.POST("/lessons/:lessonId/complete", append(acAll, handler.CompleteLesson)...)
}
