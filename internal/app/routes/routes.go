package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/liuwen/courseadvisor/internal/app/controllers"
	"github.com/liuwen/courseadvisor/internal/app/models/dto"
	"github.com/liuwen/courseadvisor/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	advisorController *controllers.AdvisorController,
	conversationController *controllers.ConversationController,
	catalogController *controllers.CatalogController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/recommendations/status", advisorController.Status)

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Advisor chat
		recommendations := authenticated.Group("/recommendations")
		{
			recommendations.POST("/chat", advisorController.Chat)

			// Conversation management
			conversations := recommendations.Group("/conversations")
			{
				conversations.GET("", conversationController.ListConversations)
				conversations.POST("", conversationController.CreateConversation)
				conversations.DELETE("", conversationController.DeleteAllConversations)
				conversations.GET("/:conversationId", conversationController.GetConversation)
				conversations.DELETE("/:conversationId", conversationController.DeleteConversation)
				conversations.PUT("/:conversationId/title", conversationController.UpdateTitle)
				conversations.PUT("/:conversationId/context", conversationController.UpdateContext)
				conversations.POST("/:conversationId/messages", conversationController.AppendMessage)
			}
		}

		// Catalog read endpoints
		courses := authenticated.Group("/courses")
		{
			courses.GET("", catalogController.GetAllCourses)
			courses.GET("/:id", catalogController.GetCourseByID)
		}
		authenticated.GET("/faculties", catalogController.GetAllFaculties)
		authenticated.GET("/teachers", catalogController.GetAllTeachers)
	}
}
