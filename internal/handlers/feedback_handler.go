package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/routelink/bus-booking-backend/internal/middleware"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/routelink/bus-booking-backend/internal/services"
)

// FeedbackHandler handles traveler reviews
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// SubmitFeedback posts a review for a completed journey
// @Summary Submit feedback for a bus
// @Tags Feedback
// @Accept json
// @Produce json
// @Param request body models.SubmitFeedbackRequest true "Feedback request"
// @Success 201 {object} models.Feedback
// @Failure 409 {object} map[string]interface{} "No completed journey on this bus"
// @Security BearerAuth
// @Router /api/v1/feedback [post]
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	feedback, err := h.feedbackService.Submit(c.Request.Context(), userCtx.UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

// ListFeedback returns all reviews of a bus
// @Summary List feedback for a bus
// @Tags Feedback
// @Produce json
// @Param id path string true "Bus ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/buses/{id}/feedback [get]
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	feedback, err := h.feedbackService.ListForBus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(feedback),
		"feedback": feedback,
	})
}
