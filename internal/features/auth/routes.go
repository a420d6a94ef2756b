package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/skillbase/learn-server-go/internal/middleware"
)

// RegisterRoutes attaches auth endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	authGroup := router.Group("/auth")

	authGroup.POST("/login", handler.Login)
	authGroup.POST("/refresh", handler.Refresh)
	authGroup.POST("/logout", middleware.AuthenticateToken(), handler.Logout)
}
