package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/routelink/bus-booking-backend/internal/services"
)

// BusHandler handles route publication and trip search
type BusHandler struct {
	busService *services.BusService
}

// NewBusHandler creates a new BusHandler
func NewBusHandler(busService *services.BusService) *BusHandler {
	return &BusHandler{busService: busService}
}

// RegisterBus publishes a new bus run with its route
// @Summary Register a bus run (admin only)
// @Tags Buses
// @Accept json
// @Produce json
// @Param request body models.RegisterBusRequest true "Bus registration request"
// @Success 201 {object} models.Bus
// @Failure 400 {object} map[string]interface{} "Invalid route definition"
// @Security BearerAuth
// @Router /api/v1/buses [post]
func (h *BusHandler) RegisterBus(c *gin.Context) {
	var req models.RegisterBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bus, err := h.busService.RegisterBus(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bus)
}

// GetBus returns a bus run with its route stops
// @Summary Get a bus run
// @Tags Buses
// @Produce json
// @Param id path string true "Bus ID"
// @Success 200 {object} models.Bus
// @Failure 404 {object} map[string]interface{} "Bus not found"
// @Router /api/v1/buses/{id} [get]
func (h *BusHandler) GetBus(c *gin.Context) {
	bus, err := h.busService.GetBus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bus)
}

// SearchTrips finds buses serving a segment on a date
// @Summary Search bookable trips for a segment
// @Tags Buses
// @Accept json
// @Produce json
// @Param request body models.SearchTripsRequest true "Search request"
// @Success 200 {object} map[string]interface{} "Matching trips, cheapest first"
// @Router /api/v1/trips/search [post]
func (h *BusHandler) SearchTrips(c *gin.Context) {
	var req models.SearchTripsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	trips, err := h.busService.SearchTrips(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(trips),
		"trips": trips,
	})
}
