package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/killallgit/delivery-api/internal/models"
)

// Local resolves paths of existing files. It matches on existence alone, so a
// platform hint cannot steer a real file to another variant.
type Local struct{}

// NewLocal creates the local file variant
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Name() models.Platform { return models.PlatformLocal }

func (l *Local) Matches(value string, _ models.Platform) bool {
	if value == "" {
		return false
	}
	info, err := os.Stat(value)
	return err == nil && info.Mode().IsRegular()
}

func (l *Local) Parse(_ context.Context, value string) (*models.VideoItem, error) {
	base := filepath.Base(value)
	return &models.VideoItem{
		InputValue:     value,
		Title:          strings.TrimSuffix(base, filepath.Ext(base)),
		LocalVideoPath: value,
		Platform:       models.PlatformLocal,
	}, nil
}
