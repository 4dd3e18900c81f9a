package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/eventgate/internal/helpers"
	"github.com/joshua-takyi/eventgate/internal/models"
	"github.com/joshua-takyi/eventgate/internal/services"
)

// currentClaims pulls the authenticated claims the auth middleware
// stashed on the context.
func currentClaims(c *gin.Context) (*helpers.AuthClaims, bool) {
	userClaims, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse("unauthorized"))
		return nil, false
	}
	claims, ok := userClaims.(*helpers.AuthClaims)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("invalid user claims"))
		return nil, false
	}
	return claims, true
}

// respondError translates the service error taxonomy into HTTP statuses.
// Anything unrecognized stays a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrInsufficientInventory),
		errors.Is(err, services.ErrAlreadyCheckedIn),
		errors.Is(err, services.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrTicketTypeNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTicketNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrExpiredLink):
		c.JSON(http.StatusGone, models.ErrorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("internal server error"))
	}
}
