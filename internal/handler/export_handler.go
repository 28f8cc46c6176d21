package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-api/internal/service"
	appErrors "github.com/fitdesk/coach-api/pkg/errors"
	"github.com/fitdesk/coach-api/pkg/response"
)

// ExportHandler streams generated export artifacts through signed tokens.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Download godoc
// @Summary Download an export artifact with a signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing download token"))
		return
	}
	_, relPath, _, err := h.exports.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, http.StatusUnauthorized, "invalid or expired download token"))
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, "export no longer available"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}

	filename := filepath.Base(relPath)
	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		contentType = "text/csv"
	case ".pdf":
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
