package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/utils"
)

// POST /api/contact
func (h *Handlers) Contact(c *gin.Context) {
	var msg utils.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and message are required"})
		return
	}
	if h.ContactEmail == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Contact form is not configured"})
		return
	}

	email, err := utils.ContactEmail(h.ContactEmail, msg)
	if err == nil {
		err = h.Mailer.Send(c.Request.Context(), email)
	}
	if err != nil {
		log.Printf("❌ Contact message from %s: %v", msg.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Message could not be sent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent"})
}
