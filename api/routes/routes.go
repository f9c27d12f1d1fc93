package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/interview-practice/api/handlers"
	"github.com/feichai0017/interview-practice/api/middleware"
	"github.com/feichai0017/interview-practice/pkg/logger"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger, allowedOrigins []string) {
	r.Use(middleware.CORS(allowedOrigins))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Session())
	v1.Use(middleware.Logging(log))

	v1.GET("/health", handlers.Health)
	v1.POST("/login", h.Session.Login)

	sess := v1.Group("/session")
	{
		sess.GET("/options", h.Session.Options)
		sess.POST("/role", h.Session.SetRole)
		sess.POST("/experience", h.Session.SetExperience)
		sess.POST("/difficulty", h.Session.SetDifficulty)
	}

	resumes := v1.Group("/resume")
	{
		resumes.POST("/extract", h.Resume.Extract)
		resumes.GET("/progress", h.Resume.Progress)
		resumes.POST("/upload", h.Resume.Upload)
		resumes.POST("/batch", h.Resume.Batch)
		resumes.GET("/status/:taskId", h.Resume.GetStatus)
		resumes.GET("/result/:taskId", h.Resume.GetResult)
		resumes.DELETE("/task/:taskId", h.Resume.CancelTask)
		resumes.GET("/text", h.Resume.GetText)
	}

	reports := v1.Group("/report")
	{
		reports.POST("", h.Report.Generate)
		reports.POST("/score", h.Report.Score)
	}
}
