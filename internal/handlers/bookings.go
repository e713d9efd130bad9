package handlers

import (
	"net/http"
	"strconv"

	"eventhub/internal/models"
	"eventhub/internal/ticketpdf"

	"github.com/gin-gonic/gin"
)

// ConfirmBooking - POST /api/bookings/:id/confirm
// Payment confirmation signal, issues the booking's tickets
func (h *Handlers) ConfirmBooking(c *gin.Context) {
	var req models.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Tickets.ConfirmBooking(c.Request.Context(), c.Param("id"), req.PaymentID)
	if err != nil {
		fail(c, err, "Failed to confirm booking")
		return
	}

	c.JSON(http.StatusOK, response)
}

// PaymentFailed - POST /api/bookings/:id/payment-failed
func (h *Handlers) PaymentFailed(c *gin.Context) {
	var req models.PaymentFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Tickets.MarkPaymentFailed(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		fail(c, err, "Failed to record payment failure")
		return
	}

	c.Status(http.StatusAccepted)
}

// DownloadTickets - GET /api/bookings/:id/tickets.pdf[?ticket=k]
func (h *Handlers) DownloadTickets(c *gin.Context) {
	ticket := 0
	if raw := c.Query("ticket"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil || k < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ticket must be a positive number"})
			return
		}
		ticket = k
	}

	err := h.services.Tickets.DownloadTickets(c.Request.Context(), c.Param("id"), ticket, ticketpdf.DownloadSink{W: c.Writer})
	if err != nil {
		if c.Writer.Written() {
			return
		}
		fail(c, err, "Failed to render tickets")
	}
}
