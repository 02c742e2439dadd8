package handlers

import (
	"context"
	"fmt"
	"net/http"

	"privilog-backend/auth"
	"privilog-backend/models"
	"privilog-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FileStore reads and writes upload records for one owner
type FileStore interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.File, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.File, error)
}

// FileHandler serves the archived upload records: listing them and
// streaming the original bytes back out of blob storage
type FileHandler struct {
	fileRepo FileStore
	storage  storage.Storage
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileRepo FileStore, fileStorage storage.Storage) *FileHandler {
	return &FileHandler{
		fileRepo: fileRepo,
		storage:  fileStorage,
	}
}

// List handles GET /api/v1/files
func (h *FileHandler) List(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Not authenticated",
			},
		})
		return
	}

	files, err := h.fileRepo.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to list files",
			},
		})
		return
	}
	if files == nil {
		files = []*models.File{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    files,
	})
}

// Download handles GET /api/v1/files/:id, streaming the archived
// original back to its owner. Files owned by other users read as
// missing.
func (h *FileHandler) Download(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Not authenticated",
			},
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid file ID format",
			},
		})
		return
	}

	file, err := h.fileRepo.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "File not found",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), file.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": "Failed to read archived file",
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, reader, nil)
}
