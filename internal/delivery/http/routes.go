package http

import (
	"github.com/gin-gonic/gin"

	"github.com/poolbot/server/internal/core"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(env core.Environment, handler *Handler) *gin.Engine {
	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RecoveryMiddleware())

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/start", handler.Start)
		v1.POST("/messages", handler.PostMessage)

		conversations := v1.Group("/conversations")
		{
			conversations.GET("/:id/transcript", handler.GetTranscript)
			conversations.DELETE("/:id/transcript", handler.DeleteTranscript)
		}
	}

	return router
}
