package handlers

import (
	"bytes"
	"net/http"

	"privilog-backend/auth"
	"privilog-backend/service"

	"github.com/gin-gonic/gin"
)

// ExportHandler handles privilege log CSV downloads
type ExportHandler struct {
	exportService *service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// Export handles GET /api/v1/export. The CSV is assembled in memory
// first so a failure mid-export yields an error response instead of a
// truncated file.
func (h *ExportHandler) Export(c *gin.Context) {
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

	var buf bytes.Buffer
	if err := h.exportService.WriteCSV(c.Request.Context(), userID, &buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EXPORT_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="privilege_log.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
