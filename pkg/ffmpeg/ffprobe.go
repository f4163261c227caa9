package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ffprobeOutput represents the JSON structure returned by ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string            `json:"duration"`
		Size       string            `json:"size"`
		Bitrate    string            `json:"bit_rate"`
		FormatName string            `json:"format_name"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}

// GetMetadata probes a media file for duration, container and audio stream details
func (f *FFmpeg) GetMetadata(ctx context.Context, filePath string) (*MediaMetadata, error) {
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	args := []string{
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-of", "json",
		filePath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewProcessingError("metadata_extraction", filePath, err, stderr.String())
	}

	return parseMetadata(stdout.Bytes(), filePath)
}

// parseMetadata converts ffprobe JSON output to MediaMetadata
func parseMetadata(data []byte, filePath string) (*MediaMetadata, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, NewProcessingError("metadata_parsing", filePath, err, "")
	}

	metadata := &MediaMetadata{Format: output.Format.FormatName}

	if d, err := strconv.ParseFloat(output.Format.Duration, 64); err == nil {
		metadata.Duration = d
	}
	if size, err := strconv.ParseInt(output.Format.Size, 10, 64); err == nil {
		metadata.Size = size
	}
	if bitrate, err := strconv.Atoi(output.Format.Bitrate); err == nil {
		metadata.Bitrate = bitrate
	}
	if tags := output.Format.Tags; tags != nil {
		metadata.Title = tags["title"]
	}

	audioSeen := false
	for _, stream := range output.Streams {
		switch stream.CodecType {
		case "video":
			metadata.HasVideo = true
		case "audio":
			if audioSeen {
				continue
			}
			audioSeen = true
			metadata.Codec = stream.CodecName
			metadata.Channels = stream.Channels
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				metadata.SampleRate = sr
			}
			// Use stream duration if format duration is not available
			if metadata.Duration == 0 {
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					metadata.Duration = d
				}
			}
		}
	}

	if metadata.Duration <= 0 {
		return nil, NewProcessingError("metadata_validation", filePath,
			fmt.Errorf("%w: could not determine duration", ErrInvalidMedia), "")
	}

	return metadata, nil
}
