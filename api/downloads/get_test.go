package downloads

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

func TestResolvePath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		batch    string
		filename string
		ok       bool
	}{
		{"plain names", "2024-03-09_客户A", "delivery.md", true},
		{"parent batch", "..", "secret", false},
		{"parent filename", "batch", "..", false},
		{"hidden batch", ".cache", "abc.json", false},
		{"nested filename", "batch", "a/b.md", false},
		{"backslash", "batch", `..\x`, false},
		{"empty", "", "delivery.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := ResolvePath(root, tt.batch, tt.filename)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, filepath.Join(root, tt.batch, tt.filename), path)
			}
		})
	}
}

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	batch := filepath.Join(root, "2024-03-09_客户A")
	require.NoError(t, os.MkdirAll(batch, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(batch, "delivery.md"), []byte("# 交付信息\n"), 0o644))

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1/downloads"), &types.Dependencies{OutputRoot: root})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"existing file", "/api/v1/downloads/2024-03-09_%E5%AE%A2%E6%88%B7A/delivery.md", http.StatusOK},
		{"missing file", "/api/v1/downloads/2024-03-09_%E5%AE%A2%E6%88%B7A/nope.md", http.StatusNotFound},
		{"encoded parent", "/api/v1/downloads/%2E%2E/delivery.md", http.StatusBadRequest},
		{"hidden cache", "/api/v1/downloads/.cache/key.json", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "# 交付信息\n", w.Body.String())
				assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
			}
		})
	}
}
