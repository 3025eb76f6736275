package ws

import (
	"time"

	"messenger-service/internal/models"
)

// Event is the wire envelope for everything the server pushes over a
// websocket. The shape is stable across all delivery paths.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Server-originated event types.
const (
	EventOnlineList      = "online_list"
	EventUserStatus      = "user_status"
	EventUserUpdated     = "user_updated"
	EventNewMessage      = "new_message"
	EventDeleteMessage   = "delete_message"
	EventMessageRead     = "message_read"
	EventMessageReaction = "message_reaction"
	EventNewChat         = "new_chat"
	EventChatUpdated     = "chat_updated"
	EventChatDeleted     = "chat_deleted"
	EventTyping          = "typing"
)

// Client-originated event types. Anything else read off a connection is
// dropped without a response.
const (
	inboundTyping       = "typing"
	inboundStatusUpdate = "status_update"
)

// UserStatusData carries a presence transition.
type UserStatusData struct {
	UserID int    `json:"user_id"`
	Status Status `json:"status"`
	Online bool   `json:"online"`
}

// TypingData is ephemeral and never persisted.
type TypingData struct {
	ChatID   int    `json:"chat_id"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

// MessageReadData announces a new read receipt.
type MessageReadData struct {
	MessageID int       `json:"message_id"`
	ChatID    int       `json:"chat_id"`
	UserID    int       `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

// ReactionData announces a reaction being added or removed. Action is
// "added" or "removed".
type ReactionData struct {
	MessageID int    `json:"message_id"`
	ChatID    int    `json:"chat_id"`
	UserID    int    `json:"user_id"`
	Emoji     string `json:"emoji"`
	Action    string `json:"action"`
}

// DeleteMessageData announces a message deletion.
type DeleteMessageData struct {
	MessageID int `json:"message_id"`
	ChatID    int `json:"chat_id"`
}

// ChatDeletedData announces that a chat is gone, either deleted outright or
// no longer visible to the recipient after their removal.
type ChatDeletedData struct {
	ChatID int `json:"chat_id"`
}

// NewMessageEvent builds the new_message envelope from a resolved message.
func NewMessageEvent(msg models.MessageView) Event {
	return Event{Type: EventNewMessage, Data: msg}
}

// NewChatEvent builds the new_chat envelope from a resolved chat.
func NewChatEvent(chat models.ChatView) Event {
	return Event{Type: EventNewChat, Data: chat}
}

// ChatUpdatedEvent builds the chat_updated envelope.
func ChatUpdatedEvent(chat models.ChatView) Event {
	return Event{Type: EventChatUpdated, Data: chat}
}

// UserUpdatedEvent builds the user_updated envelope.
func UserUpdatedEvent(user models.UserRef) Event {
	return Event{Type: EventUserUpdated, Data: user}
}
