package acquisition

import (
	"context"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/pkg/download"
	"github.com/killallgit/delivery-api/pkg/ffmpeg"
)

// Acquirer materializes local media for a resolved item
type Acquirer interface {
	// Download fetches the item's source into tmpDir unless a local video exists
	Download(ctx context.Context, item *models.VideoItem, tmpDir string) (*models.VideoItem, error)

	// ExtractAudio writes a speech WAV next to the video unless audio exists
	ExtractAudio(ctx context.Context, item *models.VideoItem, tmpDir string) (*models.VideoItem, error)
}

// Fetcher streams a remote resource to a local file
type Fetcher interface {
	DownloadToFile(ctx context.Context, url, dest string, headers map[string]string) (*download.DownloadResult, error)
}

// MediaTool runs the external codec
type MediaTool interface {
	ValidateFFmpeg() error
	ExtractAudio(ctx context.Context, input, output string, format ffmpeg.AudioFormat) error
	GetMetadata(ctx context.Context, filePath string) (*ffmpeg.MediaMetadata, error)
}
