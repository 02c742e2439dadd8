package handlers

import (
	"bytes"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"

	"privilog-backend/auth"
	"privilog-backend/models"
	"privilog-backend/service"
	"privilog-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MB

// UploadHandler ingests uploaded email files: the original bytes are
// archived in blob storage while the text runs through the analysis
// pipeline
type UploadHandler struct {
	fileRepo        FileStore
	emailRepo       EmailStore
	storage         storage.Storage
	analysisService *service.AnalysisService
	logger          *zap.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(
	fileRepo FileStore,
	emailRepo EmailStore,
	fileStorage storage.Storage,
	analysisService *service.AnalysisService,
	logger *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		fileRepo:        fileRepo,
		emailRepo:       emailRepo,
		storage:         fileStorage,
		analysisService: analysisService,
		logger:          logger,
	}
}

// Upload handles POST /api/v1/upload
func (h *UploadHandler) Upload(c *gin.Context) {
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": "File exceeds the 10MB limit",
			},
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".eml" && ext != ".txt" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Only .eml and .txt files are accepted",
			},
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE",
				"message": "Failed to read uploaded file",
			},
		})
		return
	}
	defer src.Close()

	var data bytes.Buffer
	if _, err := data.ReadFrom(src); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE",
				"message": "Failed to read uploaded file",
			},
		})
		return
	}

	rawText := data.String()
	overrides := service.MetadataOverrides{}
	if ext == ".eml" {
		overrides = emlOverrides(data.Bytes())
	}

	result, err := h.analysisService.Analyze(c.Request.Context(), service.AnalyzeRequest{
		RawText:   rawText,
		Overrides: overrides,
		UserID:    userID,
	})
	if err != nil {
		respondAnalysisError(c, err)
		return
	}

	// Archive the original bytes and record the upload. If archival
	// fails the just-created email/entry pair is rolled back with a
	// compensating delete so no half-ingested upload survives.
	fileID := uuid.New()
	storagePath, err := h.storage.Upload(c.Request.Context(), fileID, fileHeader.Filename, bytes.NewReader(data.Bytes()))
	if err == nil {
		file := &models.File{
			ID:          fileID,
			UserID:      userID,
			EmailID:     &result.EmailID,
			Filename:    fileHeader.Filename,
			MimeType:    mimeTypeForExt(ext),
			Size:        fileHeader.Size,
			StoragePath: storagePath,
		}
		if createErr := h.fileRepo.Create(c.Request.Context(), file); createErr != nil {
			h.storage.Delete(c.Request.Context(), storagePath)
			err = createErr
		}
	}
	if err != nil {
		h.logger.Error("failed to archive upload, rolling back analysis",
			zap.Int64("email_id", result.EmailID),
			zap.Error(err))
		if delErr := h.emailRepo.Delete(c.Request.Context(), result.EmailID, userID); delErr != nil {
			h.logger.Error("compensating delete failed", zap.Error(delErr))
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to store uploaded file",
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// emlOverrides pulls header fields out of an RFC 822 message. A file
// that does not parse yields no overrides; line-based extraction still
// runs over the raw text.
func emlOverrides(data []byte) service.MetadataOverrides {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return service.MetadataOverrides{}
	}

	return service.MetadataOverrides{
		Date:      msg.Header.Get("Date"),
		Sender:    msg.Header.Get("From"),
		Recipient: msg.Header.Get("To"),
		Subject:   msg.Header.Get("Subject"),
	}
}

func mimeTypeForExt(ext string) string {
	if ext == ".eml" {
		return "message/rfc822"
	}
	return "text/plain"
}
