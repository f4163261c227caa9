package types

import (
	"github.com/killallgit/delivery-api/internal/database"
	"github.com/killallgit/delivery-api/internal/services/jobs"
)

// MediaChecker reports whether the ffmpeg toolchain is usable
type MediaChecker interface {
	ValidateFFmpeg() error
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB         *database.DB
	JobService jobs.Service
	Media      MediaChecker

	OutputRoot    string
	TempDir       string
	MaxUploadSize int64
}
