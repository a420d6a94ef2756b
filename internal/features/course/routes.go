package course

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches course and chapter endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	courses := router.Group("/companies/:companyId/courses")

	courses.GET("", append(acAll, handler.List)...)
	courses.GET("/:courseId", append(acAll, handler.GetByID)...)
	courses.POST("", append(acStaff, handler.Create)...)
	courses.PUT("/:courseId", append(acStaff, handler.Update)...)
	courses.DELETE("/:courseId", append(acStaff, handler.Delete)...)

	courses.POST("/:courseId/chapters", append(acStaff, handler.CreateChapter)...)
	courses.PUT("/:courseId/chapters/:chapterId", append(acStaff, handler.UpdateChapter)...)
	courses.DELETE("/:courseId/chapters/:chapterId", append(acStaff, handler.DeleteChapter)...)
}
