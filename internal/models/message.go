package models

import "time"

// Message belongs to exactly one chat and one sender. Text and the attached
// file are both optional, but never both absent. ReplyToID is a back
// reference by id, nulled when the target message is deleted.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Text      *string   `db:"text" json:"text"`
	FileID    *int      `db:"file_id" json:"file_id,omitempty"`
	ReplyToID *int      `db:"reply_to_id" json:"reply_to_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageView is a message with its sender and attachment resolved.
type MessageView struct {
	Message
	Sender UserRef `json:"sender"`
	File   *File   `json:"file"`
}

// MessageRead records that a user has read a message. At most one row per
// (message, user); never created for the sender's own message.
type MessageRead struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ReadAt    time.Time `db:"read_at" json:"read_at"`
}

// Reaction is one user's emoji on one message. A user holds at most one
// reaction per message; picking a new emoji retracts the old one.
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
