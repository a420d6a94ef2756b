package content

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches content graph endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	scope := router.Group("/companies/:companyId")

	scope.GET("/courses/:courseId/modules", append(acAll, handler.ListModules)...)
	scope.POST("/courses/:courseId/modules", append(acStaff, handler.CreateModule)...)
	scope.PUT("/modules/:moduleId", append(acStaff, handler.UpdateModule)...)
	scope.DELETE("/modules/:moduleId", append(acStaff, handler.DeleteModule)...)

	scope.POST("/modules/:moduleId/lessons", append(acStaff, handler.CreateLesson)...)
	scope.PUT("/lessons/:lessonId", append(acStaff, handler.UpdateLesson)...)
	scope.DELETE("/lessons/:lessonId", append(acStaff, handler.DeleteLesson)...)

	scope.POST("/lessons/:lessonId/blocks", append(acStaff, handler.CreateBlock)...)
	scope.PUT("/blocks/:blockId", append(acStaff, handler.UpdateBlock)...)
	scope.DELETE("/blocks/:blockId", append(acStaff, handler.DeleteBlock)...)
}
