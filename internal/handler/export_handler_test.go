package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fitdesk/coach-api/internal/service"
	"github.com/fitdesk/coach-api/pkg/storage"
)

func newDownloadHandler(t *testing.T) *ExportHandler {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	exports := service.NewExportService(nil, nil, nil, nil, store, signer, nil, nil, nil)
	return NewExportHandler(exports)
}

func TestExportHandlerDownloadMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDownloadHandler(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/download", nil)

	handler.Download(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownloadRejectsForgedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDownloadHandler(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/exports/download?token=not-a-real-token", nil)

	handler.Download(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
