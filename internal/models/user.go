package models

import "time"

// User is an account known to the data store. Password material never
// leaves the server.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        *string   `db:"email" json:"email,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	AvatarPath   *string   `db:"avatar_path" json:"avatar_path"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserRef is the compact user shape embedded in events and API responses.
type UserRef struct {
	ID         int     `db:"id" json:"id"`
	Username   string  `db:"username" json:"username"`
	AvatarPath *string `db:"avatar_path" json:"avatar_path"`
}

// Ref reduces a User to its embeddable form.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, AvatarPath: u.AvatarPath}
}
