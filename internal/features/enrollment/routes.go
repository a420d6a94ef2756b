package enrollment

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches enrollment endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	router.GET("/me/enrollments", append(acAll, handler.ListMine)...)

	courses := router.Group("/companies/:companyId/courses/:courseId")
	courses.POST("/enroll", append(acAll, handler.SelfEnroll)...)
	courses.DELETE("/enroll", append(acAll, handler.Unenroll)...)
	courses.GET("/enrollments", append(acStaff, handler.ListForCourse)...)
	courses.POST("/enrollments", append(acStaff, handler.EnrollUser)...)

	router.PUT("/companies/:companyId/enrollments/:enrollmentId/due-date", append(acStaff, handler.SetDueDate)...)
}
