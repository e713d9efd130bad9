package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the ticket API on an authenticated group
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	bookings := api.Group("/bookings/:id")
	{
		bookings.POST("/confirm", h.ConfirmBooking)
		bookings.POST("/payment-failed", h.PaymentFailed)
		bookings.GET("/tickets.pdf", h.DownloadTickets)
		bookings.POST("/verify", h.VerifyTicket)
		bookings.POST("/tickets/:number/cancel", h.CancelTicket)
		bookings.GET("/verifications", h.ListVerifications)
	}

	api.POST("/tickets/scan", h.ScanTicket)
	api.POST("/newsletter/send", h.SendNewsletter)
}
