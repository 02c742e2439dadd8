package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"privilog-backend/auth"
	"privilog-backend/models"
	"privilog-backend/oracle"
	"privilog-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EmailStore reads and deletes stored emails, always scoped to their
// owner
type EmailStore interface {
	GetByID(ctx context.Context, id int64, userID uuid.UUID) (*models.Email, error)
	Delete(ctx context.Context, id int64, userID uuid.UUID) error
}

// AnalysisHandler handles HTTP requests for privilege analysis
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	emails          EmailStore
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService *service.AnalysisService, emails EmailStore) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		emails:          emails,
	}
}

// AnalyzeRequest represents the request body for analysis. The
// optional fields override whatever extraction finds in the text.
type AnalyzeRequest struct {
	Text      string `json:"text" binding:"required"`
	Date      string `json:"date"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
}

// Analyze handles POST /api/v1/analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

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

	result, err := h.analysisService.Analyze(c.Request.Context(), service.AnalyzeRequest{
		RawText: req.Text,
		Overrides: service.MetadataOverrides{
			Date:      req.Date,
			Sender:    req.Sender,
			Recipient: req.Recipient,
			Subject:   req.Subject,
		},
		UserID: userID,
	})
	if err != nil {
		respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEmail handles GET /api/v1/emails/:id. Emails owned by other
// users read as missing.
func (h *AnalysisHandler) GetEmail(c *gin.Context) {
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

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid email ID format",
			},
		})
		return
	}

	email, err := h.emails.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Email not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, email)
}

// respondAnalysisError maps pipeline failures onto the error
// envelope. Oracle failures are reported as such, never coerced into
// a "not privileged" result.
func respondAnalysisError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrMissingText) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	var oe *oracle.Error
	if errors.As(err, &oe) {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORACLE_ERROR",
				"message": oe.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "STORAGE_ERROR",
			"message": err.Error(),
		},
	})
}
