package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/delivery-api/api/types"
)

func setupRouter(deps *types.Dependencies) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, deps)
	return router
}

func TestIndex(t *testing.T) {
	w := httptest.NewRecorder()
	setupRouter(&types.Dependencies{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, `<form id="job-form">`)
	assert.Contains(t, body, `fetch("/api/v1/jobs"`)
	assert.Contains(t, body, `name="files" multiple`)
	assert.Contains(t, body, `<option value="bilibili">`)
	assert.Contains(t, body, `value="docx" checked`)
	assert.Contains(t, body, `value="srt">`)
	assert.Contains(t, body, "任务队列未启用")
}

func TestHistory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2024-03-09_客户A")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "客户A.docx"), []byte("docx"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0o755))

	w := httptest.NewRecorder()
	setupRouter(&types.Dependencies{OutputRoot: root}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h2>2024-03-09_客户A</h2>")
	assert.Contains(t, body, "客户A.docx</a> (4 B)")
	assert.Contains(t, body, `href="/api/v1/downloads/2024-03-09_%E5%AE%A2%E6%88%B7A/%E5%AE%A2%E6%88%B7A.docx"`)
	assert.NotContains(t, body, ".cache")
}

func TestHistoryEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	root := filepath.Join(t.TempDir(), "missing")
	setupRouter(&types.Dependencies{OutputRoot: root}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "暂无交付记录")
}
