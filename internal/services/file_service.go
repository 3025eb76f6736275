package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"messenger-service/internal/files"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

type FileService struct {
	files repositories.FileRepository
	blobs BlobStore
	log   *zap.SugaredLogger
}

func NewFileService(filesRepo repositories.FileRepository, blobs BlobStore, log *zap.SugaredLogger) *FileService {
	return &FileService{files: filesRepo, blobs: blobs, log: log}
}

// Upload stores the blob and records it, returning the file row to attach
// to a message later.
func (s *FileService) Upload(ctx context.Context, r io.Reader, filename, mimeType string) (models.File, error) {
	if filename == "" {
		return models.File{}, fmt.Errorf("%w: filename is required", ErrInvalid)
	}
	name, size, err := s.blobs.Save(r, filename)
	if err != nil {
		if errors.Is(err, files.ErrBadExtension) || errors.Is(err, files.ErrTooLarge) {
			return models.File{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return models.File{}, err
	}
	file, err := s.files.CreateFile(ctx, filename, name, mimeType, size)
	if err != nil {
		if rmErr := s.blobs.Remove(name); rmErr != nil {
			s.log.Warnw("failed to remove orphaned blob", "name", name, "error", rmErr)
		}
		return models.File{}, err
	}
	return file, nil
}

// Get returns the file row for download handlers.
func (s *FileService) Get(ctx context.Context, fileID int) (models.File, error) {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return models.File{}, fmt.Errorf("%w: file %d", ErrNotFound, fileID)
		}
		return models.File{}, err
	}
	return file, nil
}
