package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateFFmpeg checks that the ffmpeg binary resolves on PATH
func (f *FFmpeg) ValidateFFmpeg() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	return nil
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if err := f.ValidateFFmpeg(); err != nil {
		return err
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}
	return nil
}

// ExtractAudio writes the input's audio track to output as a WAV in the given format,
// overwriting any existing file
func (f *FFmpeg) ExtractAudio(ctx context.Context, input, output string, format AudioFormat) error {
	if err := f.ValidateFFmpeg(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return NewProcessingError("audio_extraction", input, err, "")
	}
	return f.run(ctx, "audio_extraction", input, extractAudioArgs(input, output, format))
}

// SplitAudio cuts input into consecutive segments of segmentSeconds each and
// returns the segment paths in playback order
func (f *FFmpeg) SplitAudio(ctx context.Context, input, outDir string, segmentSeconds int) ([]string, error) {
	if segmentSeconds <= 0 {
		return nil, NewProcessingError("segmentation", input, fmt.Errorf("invalid segment length %d", segmentSeconds), "")
	}
	if err := f.ValidateFFmpeg(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, NewProcessingError("segmentation", input, err, "")
	}

	pattern := filepath.Join(outDir, "part_%03d.wav")
	if err := f.run(ctx, "segmentation", input, splitAudioArgs(input, pattern, segmentSeconds)); err != nil {
		return nil, err
	}

	parts, err := filepath.Glob(filepath.Join(outDir, "part_*.wav"))
	if err != nil {
		return nil, NewProcessingError("segmentation", input, err, "")
	}
	if len(parts) == 0 {
		return nil, NewProcessingError("segmentation", input, ErrNoSegments, "")
	}
	sort.Strings(parts)
	return parts, nil
}

func (f *FFmpeg) run(ctx context.Context, operation, input string, args []string) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrProcessingTimeout
		}
		return NewProcessingError(operation, input, err, stderr.String())
	}
	return nil
}

func extractAudioArgs(input, output string, format AudioFormat) []string {
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-ac", strconv.Itoa(format.Channels),
		"-ar", strconv.Itoa(format.SampleRate),
		"-acodec", format.Codec,
		output,
	}
}

func splitAudioArgs(input, pattern string, segmentSeconds int) []string {
	return []string{
		"-y",
		"-i", input,
		"-f", "segment",
		"-segment_time", strconv.Itoa(segmentSeconds),
		"-c", "copy",
		pattern,
	}
}
