package handlers

import (
	"net/http"

	"eventhub/internal/models"

	"github.com/gin-gonic/gin"
)

// VerifyTicket - POST /api/bookings/:id/verify
// Denied check-ins are still 200; the result carries the reason
func (h *Handlers) VerifyTicket(c *gin.Context) {
	var req models.VerifyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.services.Verification.Verify(c.Request.Context(), c.Param("id"), req.TicketNumber, actor(c))
	if err != nil {
		fail(c, err, "Failed to verify ticket")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ScanTicket - POST /api/tickets/scan
func (h *Handlers) ScanTicket(c *gin.Context) {
	var req models.ScanTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.services.Verification.VerifyScan(c.Request.Context(), req.Payload, actor(c))
	if err != nil {
		fail(c, err, "Failed to verify ticket")
		return
	}

	c.JSON(http.StatusOK, result)
}

// CancelTicket - POST /api/bookings/:id/tickets/:number/cancel
func (h *Handlers) CancelTicket(c *gin.Context) {
	if err := h.services.Verification.CancelTicket(c.Request.Context(), c.Param("id"), c.Param("number")); err != nil {
		fail(c, err, "Failed to cancel ticket")
		return
	}

	c.Status(http.StatusOK)
}

// ListVerifications - GET /api/bookings/:id/verifications
func (h *Handlers) ListVerifications(c *gin.Context) {
	response, err := h.services.Verification.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "Failed to list verifications")
		return
	}

	c.JSON(http.StatusOK, response)
}
