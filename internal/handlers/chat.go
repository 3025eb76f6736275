package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
)

// ChatHandler manages chat CRUD and membership endpoints.
type ChatHandler struct {
	chats *services.ChatService
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats *services.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// ListChats returns the chats visible to the authenticated user.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chats.ListChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to load chats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// CreateChat creates a group chat or finds-or-creates a direct chat.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Name        *string `json:"name"`
		IsGroup     bool    `json:"is_group"`
		RecipientID *int    `json:"recipient_id"`
		MemberIDs   []int   `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	view, err := h.chats.CreateChat(c.Request.Context(), userID, services.CreateChatParams{
		Name:        req.Name,
		IsGroup:     req.IsGroup,
		RecipientID: req.RecipientID,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		respondError(c, err, "could not create chat")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetChat returns a single chat with members and last message.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	view, err := h.chats.GetChat(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "failed to load chat")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateChat renames a chat or changes its avatar.
func (h *ChatHandler) UpdateChat(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Name       *string `json:"name"`
		AvatarPath *string `json:"avatar_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.chats.UpdateChat(c.Request.Context(), chatID, c.GetInt("userID"), req.Name, req.AvatarPath)
	if err != nil {
		respondError(c, err, "could not update chat")
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteChat removes a chat for all members.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	if err := h.chats.DeleteChat(c.Request.Context(), chatID, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not delete chat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AddMember adds a user to a group chat.
func (h *ChatHandler) AddMember(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.chats.AddMember(c.Request.Context(), chatID, c.GetInt("userID"), req.UserID)
	if err != nil {
		respondError(c, err, "could not add member")
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveMember removes a user from a chat. Members may remove themselves.
func (h *ChatHandler) RemoveMember(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.chats.RemoveMember(c.Request.Context(), chatID, c.GetInt("userID"), targetID); err != nil {
		respondError(c, err, "could not remove member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
