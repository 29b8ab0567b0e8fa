package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/models/dto"
	"github.com/liuwen/courseadvisor/internal/app/services"
	"github.com/liuwen/courseadvisor/internal/middleware"
	"github.com/liuwen/courseadvisor/internal/pkg/apperrors"
)

// ConversationController handles conversation management operations
type ConversationController struct {
	conversationService services.ConversationService
}

// NewConversationController creates a new ConversationController
func NewConversationController(conversationService services.ConversationService) *ConversationController {
	return &ConversationController{
		conversationService: conversationService,
	}
}

// CreateConversation godoc
// @Summary Create a conversation
// @Description Starts an empty advising conversation; the id is generated when not supplied
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateConversationRequest false "Optional conversation id"
// @Success 201 {object} dto.APIResponse{data=dto.ConversationResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 409 {object} dto.ErrorResponse "Conversation id already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations [post]
func (c *ConversationController) CreateConversation(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.CreateConversationRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid conversation data")
			errorDetail = errorDetail.WithDetails(err.Error())
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
	}

	conv, err := c.conversationService.Create(ctx, userID, req.ConversationID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ToConversationResponse(conv)))
}

// ListConversations godoc
// @Summary List conversations
// @Description Returns the user's conversations, most recently updated first
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ConversationListResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations [get]
func (c *ConversationController) ListConversations(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	conversations, err := c.conversationService.List(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	response := dto.ConversationListResponse{
		Conversations: make([]dto.ConversationResponse, 0, len(conversations)),
	}
	for _, conv := range conversations {
		response.Conversations = append(response.Conversations, dto.ToConversationResponse(conv))
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// GetConversation godoc
// @Summary Get a conversation
// @Description Returns one conversation with its full message transcript
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "Conversation ID"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationDetailResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Conversation belongs to another user"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations/{conversationId} [get]
func (c *ConversationController) GetConversation(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	conv, err := c.conversationService.Get(ctx, userID, ctx.Param("conversationId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ToConversationDetailResponse(conv)))
}

// DeleteConversation godoc
// @Summary Delete a conversation
// @Description Soft deletes one conversation; it no longer appears in listings
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "Conversation ID"
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations/{conversationId} [delete]
func (c *ConversationController) DeleteConversation(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	if err := c.conversationService.Delete(ctx, userID, ctx.Param("conversationId")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"message": "Conversation deleted"}))
}

// DeleteAllConversations godoc
// @Summary Delete all conversations
// @Description Soft deletes every conversation of the authenticated user
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations [delete]
func (c *ConversationController) DeleteAllConversations(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	count, err := c.conversationService.DeleteAll(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"deleted": count}))
}

// UpdateTitle godoc
// @Summary Rename a conversation
// @Description Replaces the conversation title
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "Conversation ID"
// @Param request body dto.UpdateConversationTitleRequest true "New title"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations/{conversationId}/title [put]
func (c *ConversationController) UpdateTitle(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.UpdateConversationTitleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid title")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.conversationService.UpdateTitle(ctx, userID, ctx.Param("conversationId"), req.Title); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"message": "Title updated"}))
}

// UpdateContext godoc
// @Summary Replace the conversation criteria
// @Description Replaces the accumulated recommendation criteria wholesale; invalid enum values are rejected
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "Conversation ID"
// @Param request body dto.UpdateConversationContextRequest true "New criteria"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid criteria values"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations/{conversationId}/context [put]
func (c *ConversationController) UpdateContext(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.UpdateConversationContextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid criteria data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	criteria, err := criteriaFromRequest(req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.conversationService.UpdateContext(ctx, userID, ctx.Param("conversationId"), criteria); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"message": "Context updated"}))
}

// AppendMessage godoc
// @Summary Append a message
// @Description Appends a plain message to the transcript without running the advisor pipeline
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param conversationId path string true "Conversation ID"
// @Param request body dto.AppendMessageRequest true "Message role and content"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Conversation not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /recommendations/conversations/{conversationId}/messages [post]
func (c *ConversationController) AppendMessage(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return
	}

	var req dto.AppendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid message data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	msg, err := c.conversationService.AppendMessage(ctx, userID, ctx.Param("conversationId"), models.MessageRole(req.Role), req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.ToMessageResponse(msg)))
}

// criteriaFromRequest validates an explicit context edit. Extraction drops
// invalid values silently; a client edit gets told what was wrong.
func criteriaFromRequest(req dto.UpdateConversationContextRequest) (models.Criteria, error) {
	var criteria models.Criteria

	if req.CourseType != "" {
		courseType := models.CourseType(req.CourseType)
		if !models.ValidCourseType(string(courseType)) {
			return criteria, fmt.Errorf("%w: unknown course type %q", apperrors.ErrInvalidCriteria, req.CourseType)
		}
		criteria.CourseType = courseType
	}
	if req.Credits != nil {
		if *req.Credits <= 0 {
			return criteria, fmt.Errorf("%w: credits must be positive", apperrors.ErrInvalidCriteria)
		}
		criteria.Credits = req.Credits
	}
	if req.Difficulty != "" {
		difficulty := models.Difficulty(req.Difficulty)
		if !models.ValidDifficulty(string(difficulty)) {
			return criteria, fmt.Errorf("%w: unknown difficulty %q", apperrors.ErrInvalidCriteria, req.Difficulty)
		}
		criteria.Difficulty = difficulty
	}
	criteria.Keywords = req.Keywords
	criteria.Faculty = req.Faculty
	criteria.Teacher = req.Teacher
	criteria.NormalizeKeywords()

	return criteria, nil
}
