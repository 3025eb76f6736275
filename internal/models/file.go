package models

import "time"

// File is a stored attachment or avatar blob. Path is the server-generated
// name inside the upload directory, Filename the original client name.
type File struct {
	ID        int       `db:"id" json:"id"`
	Filename  string    `db:"filename" json:"filename"`
	Path      string    `db:"path" json:"path"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	Size      int64     `db:"size" json:"size"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
