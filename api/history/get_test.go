package history

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/delivery-api/api/types"
)

func makeBatch(t *testing.T, root, name string, mtime time.Time, files ...string) {
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("data"), 0o644))
	}
	require.NoError(t, os.Chtimes(dir, mtime, mtime))
}

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	now := time.Now()
	makeBatch(t, root, "2024-03-08_客户A", now.Add(-2*time.Hour), "delivery.md")
	makeBatch(t, root, "2024-03-09_客户B", now.Add(-time.Hour), "delivery.md", "delivery.xlsx")
	makeBatch(t, root, ".cache", now, "abc.json")

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1/history"), &types.Dependencies{OutputRoot: root})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "2024-03-09_客户B", resp.Batches[0].Name)
	assert.Equal(t, "2024-03-08_客户A", resp.Batches[1].Name)
	assert.Len(t, resp.Batches[0].Files, 2)
	assert.Equal(t, int64(4), resp.Batches[1].Files[0].Size)
	assert.Equal(t, "/api/v1/downloads/2024-03-08_%E5%AE%A2%E6%88%B7A/delivery.md", resp.Batches[1].Files[0].DownloadURL)
}

func TestListBatchesMissingRoot(t *testing.T) {
	batches, err := ListBatches(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, batches)
}
