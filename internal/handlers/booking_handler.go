package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/middleware"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/routelink/bus-booking-backend/internal/services"
)

// BookingHandler handles seat reservation and cancellation
type BookingHandler struct {
	reservationSvc  *services.ReservationService
	cancellationSvc *services.CancellationService
	bookingRepo     *database.BookingRepository
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	reservationSvc *services.ReservationService,
	cancellationSvc *services.CancellationService,
	bookingRepo *database.BookingRepository,
) *BookingHandler {
	return &BookingHandler{
		reservationSvc:  reservationSvc,
		cancellationSvc: cancellationSvc,
		bookingRepo:     bookingRepo,
	}
}

// ReserveSeats holds seats across a segment pending payment
// @Summary Reserve seats for a segment
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.ReserveSeatsRequest true "Reservation request"
// @Success 201 {object} models.ReservationSummary
// @Failure 400 {object} map[string]interface{} "Invalid segment or seats"
// @Failure 409 {object} map[string]interface{} "Seats no longer available"
// @Security BearerAuth
// @Router /api/v1/bookings/reserve [post]
func (h *BookingHandler) ReserveSeats(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ReserveSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	summary, err := h.reservationSvc.Reserve(c.Request.Context(), userCtx.UserID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// CancelBooking releases seats and issues a proportional refund
// @Summary Cancel all or part of a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CancelBookingRequest true "Cancellation request"
// @Success 200 {object} models.CancellationResult
// @Failure 403 {object} map[string]interface{} "Booking belongs to another traveler"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Booking changed concurrently"
// @Security BearerAuth
// @Router /api/v1/bookings/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	audit := services.AuditContext{
		UserID:    userCtx.UserID,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	result, err := h.cancellationSvc.Cancel(c.Request.Context(), audit, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MyBookings lists the authenticated traveler's bookings
// @Summary List my bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/v1/bookings [get]
func (h *BookingHandler) MyBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookings, err := h.bookingRepo.GetByUserID(c.Request.Context(), userCtx.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(bookings),
		"bookings": bookings,
	})
}

// GetBooking returns one booking by booking or payment reference
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Param reference path string true "Booking or payment reference"
// @Success 200 {object} models.Booking
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Security BearerAuth
// @Router /api/v1/bookings/{reference} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	booking, err := h.bookingRepo.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	if booking.UserID != userCtx.UserID && !userCtx.IsAdmin {
		writeError(c, models.ErrNotAuthorized)
		return
	}

	c.JSON(http.StatusOK, booking)
}
