package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)
	if ffmpeg.ffmpegPath != "ffmpeg" {
		t.Errorf("Expected ffmpegPath to be 'ffmpeg', got %s", ffmpeg.ffmpegPath)
	}
	if ffmpeg.ffprobePath != "ffprobe" {
		t.Errorf("Expected ffprobePath to be 'ffprobe', got %s", ffmpeg.ffprobePath)
	}
	if ffmpeg.timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", ffmpeg.timeout)
	}
}

func TestExtractAudioArgs(t *testing.T) {
	got := extractAudioArgs("in.mp4", "out.wav", SpeechFormat)
	want := []string{"-y", "-i", "in.mp4", "-vn", "-ac", "1", "-ar", "16000", "-acodec", "pcm_s16le", "out.wav"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extractAudioArgs() = %v, want %v", got, want)
	}
}

func TestSplitAudioArgs(t *testing.T) {
	got := splitAudioArgs("in.wav", "parts/part_%03d.wav", 600)
	want := []string{"-y", "-i", "in.wav", "-f", "segment", "-segment_time", "600", "-c", "copy", "parts/part_%03d.wav"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitAudioArgs() = %v, want %v", got, want)
	}
}

func TestMissingBinaryIsReported(t *testing.T) {
	ffmpeg := New("definitely-not-ffmpeg-xyz", "definitely-not-ffprobe-xyz", time.Second)

	err := ffmpeg.ExtractAudio(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.wav"), SpeechFormat)
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("Expected ErrFFmpegNotFound, got %v", err)
	}

	_, err = ffmpeg.SplitAudio(context.Background(), "in.wav", t.TempDir(), 600)
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("Expected ErrFFmpegNotFound, got %v", err)
	}

	_, err = ffmpeg.GetMetadata(context.Background(), "in.mp4")
	if !errors.Is(err, ErrFFprobeNotFound) {
		t.Errorf("Expected ErrFFprobeNotFound, got %v", err)
	}
}

func TestSplitAudioRejectsBadSegmentLength(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", time.Second)
	var procErr *ProcessingError
	if _, err := ffmpeg.SplitAudio(context.Background(), "in.wav", t.TempDir(), 0); !errors.As(err, &procErr) {
		t.Errorf("Expected ProcessingError, got %v", err)
	}
}

func TestParseMetadata(t *testing.T) {
	data := []byte(`{
		"format": {"duration": "12.480000", "size": "1048576", "bit_rate": "672000", "format_name": "mov,mp4,m4a,3gp,3g2,mj2", "tags": {"title": "demo"}},
		"streams": [
			{"codec_type": "video", "codec_name": "h264"},
			{"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2, "duration": "12.4"}
		]
	}`)

	metadata, err := parseMetadata(data, "demo.mp4")
	if err != nil {
		t.Fatalf("parseMetadata() error = %v", err)
	}
	if metadata.DurationMS() != 12480 {
		t.Errorf("Expected 12480ms, got %d", metadata.DurationMS())
	}
	if !metadata.HasVideo {
		t.Errorf("Expected HasVideo")
	}
	if metadata.Codec != "aac" || metadata.SampleRate != 44100 || metadata.Channels != 2 {
		t.Errorf("Unexpected audio stream info: %+v", metadata)
	}
	if metadata.Title != "demo" {
		t.Errorf("Expected title demo, got %q", metadata.Title)
	}
}

func TestParseMetadataWithoutDuration(t *testing.T) {
	_, err := parseMetadata([]byte(`{"format": {}, "streams": []}`), "empty.mp4")
	if !errors.Is(err, ErrInvalidMedia) {
		t.Errorf("Expected ErrInvalidMedia, got %v", err)
	}

	_, err = parseMetadata([]byte(`not json`), "broken.mp4")
	var procErr *ProcessingError
	if !errors.As(err, &procErr) || procErr.Operation != "metadata_parsing" {
		t.Errorf("Expected metadata_parsing ProcessingError, got %v", err)
	}
}

// Integration test - only runs if ffmpeg/ffprobe are available
func TestExtractAndSplitWithRealBinaries(t *testing.T) {
	ffmpeg := New("ffmpeg", "ffprobe", 30*time.Second)
	if err := ffmpeg.ValidateBinaries(); err != nil {
		t.Skipf("FFmpeg binaries not available: %v", err)
	}

	dir := t.TempDir()
	ctx := context.Background()

	// Generate a 3 second tone as the source clip
	source := filepath.Join(dir, "tone.mp4")
	if err := ffmpeg.run(ctx, "fixture", "sine", []string{
		"-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=3", source,
	}); err != nil {
		t.Skipf("Could not generate fixture: %v", err)
	}

	wav := filepath.Join(dir, "tone.wav")
	if err := ffmpeg.ExtractAudio(ctx, source, wav, SpeechFormat); err != nil {
		t.Fatalf("ExtractAudio() error = %v", err)
	}

	metadata, err := ffmpeg.GetMetadata(ctx, wav)
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if metadata.SampleRate != 16000 || metadata.Channels != 1 {
		t.Errorf("Expected mono 16kHz, got %dHz x%d", metadata.SampleRate, metadata.Channels)
	}

	parts, err := ffmpeg.SplitAudio(ctx, wav, filepath.Join(dir, "parts"), 1)
	if err != nil {
		t.Fatalf("SplitAudio() error = %v", err)
	}
	if len(parts) < 2 {
		t.Errorf("Expected at least 2 segments, got %d", len(parts))
	}
	for _, p := range parts {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Segment missing: %v", err)
		}
	}
}
