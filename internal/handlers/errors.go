package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/routelink/bus-booking-backend/internal/services"
)

// writeError maps a service error onto the HTTP response. Validation
// failures are 400, missing resources 404, ownership violations 403,
// concurrency and idempotency conflicts 409, storage trouble 503. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func writeError(c *gin.Context, err error) {
	switch {
	case models.IsValidationError(err),
		errors.Is(err, services.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrRouteNotFound),
		errors.Is(err, models.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case models.IsConflictError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrPersistenceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrBusAlreadyRegistered),
		errors.Is(err, services.ErrFeedbackNotEligible):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
