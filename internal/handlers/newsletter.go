package handlers

import (
	"net/http"

	"eventhub/internal/logger"
	"eventhub/internal/models"

	"github.com/gin-gonic/gin"
)

// SendNewsletter - POST /api/newsletter/send
func (h *Handlers) SendNewsletter(c *gin.Context) {
	var req models.NewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.services.Newsletter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Newsletter delivery is not configured"})
		return
	}

	err := h.services.Newsletter.SendNewsletterEmail(c.Request.Context(), req.Email, req.Name, req.Kind, req.Data)
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.WithContext(c.Request.Context()).Error("Newsletter delivery failed", "error", err, "kind", req.Kind)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to deliver newsletter"})
		return
	}

	c.Status(http.StatusAccepted)
}
