package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
)

// MessageHandler manages message endpoints.
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// SendMessage posts a message into a chat.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Text      *string `json:"text"`
		FileID    *int    `json:"file_id"`
		ReplyToID *int    `json:"reply_to_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.messages.Send(c.Request.Context(), chatID, c.GetInt("userID"), req.Text, req.FileID, req.ReplyToID)
	if err != nil {
		respondError(c, err, "could not send message")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetMessages returns a page of chat history, oldest first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	views, err := h.messages.History(c.Request.Context(), chatID, c.GetInt("userID"), offset, limit)
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// DeleteMessage removes a single message. Sender only.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messages.Delete(c.Request.Context(), messageID, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not delete message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// BulkDeleteMessages removes a batch of the caller's messages.
func (h *MessageHandler) BulkDeleteMessages(c *gin.Context) {
	var req struct {
		MessageIDs []int `json:"message_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.messages.BulkDelete(c.Request.Context(), req.MessageIDs, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not delete messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "count": len(req.MessageIDs)})
}

// MarkRead records a read receipt.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), messageID, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not mark message read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ToggleReaction adds, removes, or replaces an emoji reaction.
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.messages.ToggleReaction(c.Request.Context(), messageID, c.GetInt("userID"), req.Emoji)
	if err != nil {
		respondError(c, err, "could not toggle reaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": action})
}
