package quiz

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches quiz endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acStaff, acAll []gin.HandlerFunc) {
	scope := router.Group("/companies/:companyId")

	scope.GET("/lessons/:lessonId/quizzes", append(acAll, handler.ListForLesson)...)
	scope.POST("/lessons/:lessonId/quizzes", append(acStaff, handler.Create)...)

	scope.GET("/quizzes/:quizId", append(acAll, handler.GetByID)...)
	scope.PUT("/quizzes/:quizId", append(acStaff, handler.Update)...)
	scope.DELETE("/quizzes/:quizId", append(acStaff, handler.Delete)...)

	scope.POST("/quizzes/:quizId/questions", append(acStaff, handler.AddQuestion)...)
	scope.DELETE("/questions/:questionId", append(acStaff, handler.DeleteQuestion)...)

	scope.POST("/quizzes/:quizId/attempts", append(acAll, handler.StartAttempt)...)
	scope.GET("/quizzes/:quizId/attempts", append(acAll, handler.ListMyAttempts)...)
	scope.POST("/attempts/:attemptId/submit", append(acAll, handler.SubmitAttempt)...)
}
