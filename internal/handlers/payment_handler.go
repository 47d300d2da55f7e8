package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/middleware"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/routelink/bus-booking-backend/internal/services"
)

// PaymentHandler handles payment settlement
type PaymentHandler struct {
	settlementSvc *services.SettlementService
	bookingRepo   *database.BookingRepository
	auditRepo     *database.PaymentAuditRepository
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	settlementSvc *services.SettlementService,
	bookingRepo *database.BookingRepository,
	auditRepo *database.PaymentAuditRepository,
) *PaymentHandler {
	return &PaymentHandler{
		settlementSvc: settlementSvc,
		bookingRepo:   bookingRepo,
		auditRepo:     auditRepo,
	}
}

// SettlePayment confirms payment for a pending reservation
// @Summary Settle a pending reservation
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.SettlePaymentRequest true "Settlement request"
// @Success 200 {object} models.SettlementResult
// @Failure 404 {object} map[string]interface{} "No booking for this payment reference"
// @Failure 409 {object} map[string]interface{} "Already settled or cancelled"
// @Security BearerAuth
// @Router /api/v1/payments/settle [post]
func (h *PaymentHandler) SettlePayment(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	// Settlement is only open to the traveler who holds the reservation.
	booking, err := h.bookingRepo.GetByPaymentReference(c.Request.Context(), req.PaymentReference)
	if err != nil {
		writeError(c, err)
		return
	}
	if booking.UserID != userCtx.UserID {
		writeError(c, models.ErrNotAuthorized)
		return
	}

	audit := services.AuditContext{
		UserID:    userCtx.UserID,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	result, err := h.settlementSvc.Settle(c.Request.Context(), audit, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PaymentHistory lists audit events for a payment reference
// @Summary List payment audit events (admin only)
// @Tags Payments
// @Produce json
// @Param reference path string true "Payment reference"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/payments/{reference}/history [get]
func (h *PaymentHandler) PaymentHistory(c *gin.Context) {
	events, err := h.auditRepo.GetByPaymentReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}
