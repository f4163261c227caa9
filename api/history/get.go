package history

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/delivery-api/api/types"
	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

// Get lists delivered batches under the output root, newest first
//
// @Summary      Delivery history
// @Tags         history
// @Produce      json
// @Success      200  {object}  types.HistoryResponse
// @Router       /api/v1/history [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		batches, err := ListBatches(deps.OutputRoot)
		if err != nil {
			types.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, types.HistoryResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Batches:      batches,
			Count:        len(batches),
		})
	}
}

// ListBatches reads the batch directories under root. Hidden entries such
// as the transcript cache are skipped.
func ListBatches(root string) ([]types.Batch, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Batch{}, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorage, "failed to read output directory")
	}

	batches := make([]types.Batch, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		batch := types.Batch{Name: entry.Name(), ModifiedAt: info.ModTime(), Files: []types.BatchFile{}}
		files, err := os.ReadDir(filepath.Join(root, entry.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			fi, err := f.Info()
			if err != nil {
				continue
			}
			batch.Files = append(batch.Files, types.BatchFile{
				Name:        f.Name(),
				Size:        fi.Size(),
				DownloadURL: "/api/v1/downloads/" + url.PathEscape(entry.Name()) + "/" + url.PathEscape(f.Name()),
			})
		}
		batches = append(batches, batch)
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].ModifiedAt.After(batches[j].ModifiedAt)
	})
	return batches, nil
}
