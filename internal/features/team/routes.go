package team

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches team endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff []gin.HandlerFunc) {
	teams := router.Group("/companies/:companyId/teams")

	teams.GET("", append(acStaff, handler.List)...)
	teams.GET("/:teamId", append(acStaff, handler.GetByID)...)
	teams.POST("", append(acStaff, handler.Create)...)
	teams.PUT("/:teamId", append(acStaff, handler.Update)...)
	teams.DELETE("/:teamId", append(acStaff, handler.Delete)...)

	teams.POST("/:teamId/members", append(acStaff, handler.AddMember)...)
	teams.DELETE("/:teamId/members/:userId", append(acStaff, handler.RemoveMember)...)
	teams.POST("/:teamId/assign-course", append(acStaff, handler.AssignCourse)...)
}
