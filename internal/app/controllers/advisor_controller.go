package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liuwen/courseadvisor/internal/app/models/dto"
	"github.com/liuwen/courseadvisor/internal/app/services"
	"github.com/liuwen/courseadvisor/internal/middleware"
)

// AdvisorController handles course recommendation chat operations
type AdvisorController struct {
	advisorService services.AdvisorService
}

// NewAdvisorController creates a new AdvisorController
func NewAdvisorController(advisorService services.AdvisorService) *AdvisorController {
	return &AdvisorController{
		advisorService: advisorService,
	}
}

// Chat godoc
// @Summary Send a chat message to the course advisor
// @Description Runs one advising turn: extracts criteria from the message, merges them into the conversation context and answers with recommendations or a clarifying question
// @Tags recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChatRequest true "Chat message with optional conversation id"
// @Success 200 {object} dto.APIResponse{data=dto.ChatReplyResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Conversation belongs to another user"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/chat [post]
func (c *AdvisorController) Chat(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid chat request")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	reply, err := c.advisorService.Chat(ctx, userID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(reply))
}

// Status godoc
// @Summary Get advisor availability
// @Description Reports whether the LLM-backed pipeline is live or the advisor is running on deterministic fallbacks
// @Tags recommendations
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AdvisorStatusResponse}
// @Router /recommendations/status [get]
func (c *AdvisorController) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.advisorService.Status()))
}
