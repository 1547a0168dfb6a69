package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hearthworks/hearth-be/services"
)

// serviceError maps sentinel service errors onto the HTTP taxonomy: 400
// validation, 404 not found, 409 conflict, 500 everything else. Internal
// errors are logged with detail and surfaced as a generic message.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrInvalidTimeRange),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrUnknownCategory),
		errors.Is(err, services.ErrMembershipRequired),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientCredits),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrWorkspaceNotFound),
		errors.Is(err, services.ErrBookingNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrMenuItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSlotUnavailable),
		errors.Is(err, services.ErrAlreadyCancelled),
		errors.Is(err, services.ErrNotCancellable),
		errors.Is(err, services.ErrOrderNotCancelled),
		errors.Is(err, services.ErrBadTransition),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		zap.L().Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
