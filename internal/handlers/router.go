package handlers

import (
	"github.com/SAP-F-2025/exam-session-service/internal/services"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(serviceManager, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/finalize", hm.sessionHandler.FinalizeSession)

			// Response capture
			sessions.PUT("/:id/responses", hm.sessionHandler.SaveResponse)
			sessions.POST("/:id/responses/bulk", hm.sessionHandler.BulkSaveResponses)

			// Proctoring
			sessions.POST("/:id/violations", hm.sessionHandler.LogViolation)

			// Recovery
			sessions.POST("/:id/snapshots", hm.sessionHandler.SaveSnapshot)
			sessions.GET("/:id/recovery", hm.sessionHandler.GetRecoveryData)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-session-service",
		})
	})
}
