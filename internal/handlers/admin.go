package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
)

// AdminHandler exposes destructive maintenance endpoints.
type AdminHandler struct {
	admin *services.AdminService
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Wipe destroys all chats, messages, files, and avatars.
func (h *AdminHandler) Wipe(c *gin.Context) {
	if err := h.admin.Wipe(c.Request.Context(), c.GetInt("userID"), requestIDFromContext(c)); err != nil {
		respondError(c, err, "wipe failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "wiped"})
}
