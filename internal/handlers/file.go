package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/files"
	"messenger-service/internal/services"
)

// FileHandler manages attachment upload and download.
type FileHandler struct {
	files *services.FileService
	store *files.Store
}

// NewFileHandler builds a FileHandler.
func NewFileHandler(filesSvc *services.FileService, store *files.Store) *FileHandler {
	return &FileHandler{files: filesSvc, store: store}
}

// Upload stores a multipart file and returns its record. The returned id
// is attached to a message with the file_id field.
func (h *FileHandler) Upload(c *gin.Context) {
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

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	file, err := h.files.Upload(c.Request.Context(), src, header.Filename, mimeType)
	if err != nil {
		respondError(c, err, "could not store file")
		return
	}
	c.JSON(http.StatusCreated, file)
}

// Download streams a stored file back with its original name.
func (h *FileHandler) Download(c *gin.Context) {
	fileID, err := strconv.Atoi(c.Param("file_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	file, err := h.files.Get(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, err, "failed to load file")
		return
	}
	path, err := h.store.Resolve(file.Path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.FileAttachment(path, file.Filename)
}
