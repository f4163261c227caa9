package downloads

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/delivery-api/api/types"
)

// Get serves one file from a delivered batch
//
// @Summary      Download a delivery file
// @Tags         downloads
// @Produce      octet-stream
// @Param        batch     path  string  true  "Batch directory"
// @Param        filename  path  string  true  "File name"
// @Success      200
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/v1/downloads/{batch}/{filename} [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, ok := ResolvePath(deps.OutputRoot, c.Param("batch"), c.Param("filename"))
		if !ok {
			types.SendBadRequest(c, "invalid file path")
			return
		}

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			types.SendNotFound(c, "file not found")
			return
		}

		c.FileAttachment(path, filepath.Base(path))
	}
}

// ResolvePath joins batch and filename under root. Both must be plain names
// and the result must stay inside root.
func ResolvePath(root, batch, filename string) (string, bool) {
	if !plainName(batch) || !plainName(filename) {
		return "", false
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	full := filepath.Clean(filepath.Join(absRoot, batch, filename))

	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return full, true
}

func plainName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
