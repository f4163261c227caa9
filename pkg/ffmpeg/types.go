package ffmpeg

// MediaMetadata represents metadata extracted from a media file
type MediaMetadata struct {
	Duration   float64 `json:"duration"`    // Duration in seconds
	SampleRate int     `json:"sample_rate"` // Sample rate of the first audio stream in Hz
	Channels   int     `json:"channels"`    // Number of audio channels
	Bitrate    int     `json:"bitrate"`     // Bitrate in bits per second
	Format     string  `json:"format"`      // Container format (mov,mp4,m4a..., wav)
	Codec      string  `json:"codec"`       // Audio codec
	Size       int64   `json:"size"`        // File size in bytes
	HasVideo   bool    `json:"has_video"`
	Title      string  `json:"title"`
}

// DurationMS returns the duration in whole milliseconds
func (m *MediaMetadata) DurationMS() int64 {
	return int64(m.Duration * 1000)
}

// AudioFormat describes the PCM WAV track produced by ExtractAudio
type AudioFormat struct {
	Channels   int
	SampleRate int
	Codec      string
}

// SpeechFormat is mono 16 kHz signed 16-bit PCM, the input every ASR backend accepts
var SpeechFormat = AudioFormat{
	Channels:   1,
	SampleRate: 16000,
	Codec:      "pcm_s16le",
}
