package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/files"
	"messenger-service/internal/services"
)

// UserHandler manages profile and avatar endpoints.
type UserHandler struct {
	users   *services.UserService
	avatars *files.Store
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users *services.UserService, avatars *files.Store) *UserHandler {
	return &UserHandler{users: users, avatars: avatars}
}

// Search finds users by username substring.
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("q")

	refs, err := h.users.SearchUsers(c.Request.Context(), query, c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "search failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": refs})
}

// GetUser returns a user's public profile.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ref, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, ref)
}

// UpdateAvatar replaces the caller's avatar with an uploaded image.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}
	defer src.Close()

	ref, err := h.users.UpdateAvatar(c.Request.Context(), c.GetInt("userID"), src, header.Filename)
	if err != nil {
		respondError(c, err, "could not store avatar")
		return
	}
	c.JSON(http.StatusOK, ref)
}

// DeleteAvatar removes the caller's avatar.
func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	ref, err := h.users.DeleteAvatar(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "could not delete avatar")
		return
	}
	c.JSON(http.StatusOK, ref)
}

// GetAvatar streams an avatar blob by stored name.
func (h *UserHandler) GetAvatar(c *gin.Context) {
	path, err := h.avatars.Resolve(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "avatar not found"})
		return
	}
	c.File(path)
}
