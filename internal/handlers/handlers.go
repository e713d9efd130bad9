package handlers

import (
	"errors"
	"net/http"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/logger"
	"eventhub/internal/middleware"
	"eventhub/internal/notify"
	"eventhub/internal/service"
	"eventhub/internal/ticketpdf"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services *service.Services
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		services: services,
	}
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrBookingNotFound),
		errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrTicketNotInBooking):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrBookingNotPayable),
		errors.Is(err, apperrors.ErrBookingNotConfirmed),
		errors.Is(err, apperrors.ErrTicketsAlreadyIssued):
		return http.StatusConflict
	case errors.Is(err, ticketpdf.ErrTicketIndex),
		errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, notify.ErrUnknownNewsletterKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response. Internal errors are logged and hidden
// behind message.
func fail(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error(message, "error", err, "path", c.Request.URL.Path)
		c.JSON(status, gin.H{"error": message})
		return
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func actor(c *gin.Context) string {
	a, _ := middleware.ActorFromContext(c.Request.Context())
	return a
}
