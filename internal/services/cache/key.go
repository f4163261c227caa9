package cache

import (
	"os"

	"github.com/killallgit/delivery-api/internal/models"
	"github.com/killallgit/delivery-api/pkg/textproc"
)

// Key derives the fingerprint an item's transcript is cached under, from the
// most specific identity available: platform id, then audio bytes, then
// video bytes, then the original input string.
func Key(item *models.VideoItem) (string, error) {
	if item.VideoID != "" {
		return "video_" + item.VideoID, nil
	}

	if fileExists(item.LocalAudioPath) {
		digest, err := textproc.HashFile(item.LocalAudioPath)
		if err != nil {
			return "", err
		}
		return "audio_" + digest, nil
	}

	if fileExists(item.LocalVideoPath) {
		digest, err := textproc.HashFile(item.LocalVideoPath)
		if err != nil {
			return "", err
		}
		return "video_" + digest, nil
	}

	return "input_" + textproc.HashString(item.InputValue), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
