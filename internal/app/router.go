package app

import (
	"learning_backend/docs"
	"learning_backend/internal/config"
	"learning_backend/internal/middleware"
	"learning_backend/internal/model"
	"learning_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	router.GET("/api/health", c.health.HealthCheck)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 任意角色
		authGroup.GET("/notifications", c.notification.Poll)
		authGroup.POST("/notifications/clear", c.notification.Clear)

		a.registerLearnerRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerLearnerRoutes(rg *gin.RouterGroup, c *controllers) {
	learner := rg.Group("/learner")
	learner.Use(middleware.RoleMiddleware(model.RoleLearner))
	{
		learner.GET("/quizzes", c.quiz.ListAvailable)
		learner.GET("/quizzes/:id", c.quiz.GetQuiz)
		learner.POST("/quizzes/:id/answers", c.quiz.SubmitAnswer)
		learner.GET("/taken-quizzes", c.quiz.ListTaken)
		learner.PUT("/interests", c.quiz.UpdateInterests)
	}
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.RoleInstructor))
	{
		instructor.POST("/quizzes", c.instructor.CreateQuiz)
		instructor.GET("/quizzes", c.instructor.ListQuizzes)
		instructor.GET("/quizzes/:id", c.instructor.GetQuiz)
		instructor.PUT("/quizzes/:id", c.instructor.UpdateQuiz)
		instructor.DELETE("/quizzes/:id", c.instructor.DeleteQuiz)
		instructor.POST("/quizzes/:id/questions", c.instructor.AddQuestion)
		instructor.PUT("/quizzes/:id/questions/:questionId", c.instructor.UpdateQuestion)
		instructor.DELETE("/quizzes/:id/questions/:questionId", c.instructor.DeleteQuestion)
		instructor.GET("/quizzes/:id/results", c.instructor.Results)
	}
}
