package models

import "time"

// Chat is a conversation. A non-group chat has exactly two members and is
// addressed by its unordered member pair; a group chat has a name and any
// number of members.
type Chat struct {
	ID         int       `db:"id" json:"id"`
	Name       *string   `db:"name" json:"name"`
	AvatarPath *string   `db:"avatar_path" json:"avatar_path"`
	IsGroup    bool      `db:"is_group" json:"is_group"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ChatMember links a user to a chat. The admin/owner flags are recorded but
// do not gate any chat action; any current member may administer the chat.
type ChatMember struct {
	ID      int  `db:"id" json:"id"`
	ChatID  int  `db:"chat_id" json:"chat_id"`
	UserID  int  `db:"user_id" json:"user_id"`
	IsAdmin bool `db:"is_admin" json:"is_admin"`
	IsOwner bool `db:"is_owner" json:"is_owner"`
}

// ChatView is the API-facing shape of a chat with its members resolved and
// the most recent message, if any.
type ChatView struct {
	Chat
	Members     []UserRef    `json:"members"`
	LastMessage *MessageView `json:"last_message"`
}
