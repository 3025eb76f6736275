package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

// FileRepository abstracts stored-file metadata persistence. The blobs
// themselves live in the blob store.
type FileRepository interface {
	CreateFile(ctx context.Context, filename, path, mimeType string, size int64) (models.File, error)
	GetFile(ctx context.Context, fileID int) (models.File, error)
	DeleteFile(ctx context.Context, fileID int) error
	ListAllPaths(ctx context.Context) ([]string, error)
	DeleteAllFiles(ctx context.Context) error
}

// FileRepo is a sqlx implementation of FileRepository.
type FileRepo struct {
	db *sqlx.DB
}

// NewFileRepo constructs a FileRepo.
func NewFileRepo(db *sqlx.DB) *FileRepo {
	return &FileRepo{db: db}
}

const fileColumns = `id, filename, path, mime_type, size, created_at`

// CreateFile persists file metadata.
func (r *FileRepo) CreateFile(ctx context.Context, filename, path, mimeType string, size int64) (models.File, error) {
	var file models.File
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO files (filename, path, mime_type, size)
         VALUES ($1, $2, $3, $4) RETURNING `+fileColumns,
		filename, path, mimeType, size).StructScan(&file)
	return file, err
}

// GetFile fetches file metadata by id.
func (r *FileRepo) GetFile(ctx context.Context, fileID int) (models.File, error) {
	var file models.File
	err := r.db.GetContext(ctx, &file, `SELECT `+fileColumns+` FROM files WHERE id=$1`, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.File{}, ErrFileNotFound
	}
	return file, err
}

// DeleteFile removes file metadata; messages referencing it have their
// pointer nulled by the schema.
func (r *FileRepo) DeleteFile(ctx context.Context, fileID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, fileID)
	return err
}

// ListAllPaths returns every stored blob name, used by the admin wipe to
// clean the disk alongside the rows.
func (r *FileRepo) ListAllPaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.SelectContext(ctx, &paths, `SELECT path FROM files`)
	return paths, err
}

// DeleteAllFiles wipes every file row. Callers clear message attachment
// pointers first.
func (r *FileRepo) DeleteAllFiles(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM files`)
	return err
}
