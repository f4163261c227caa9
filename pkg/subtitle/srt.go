package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// Segment is one timed cue
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// WriteSRT renders segments as numbered SRT cues. Segments with empty text
// are dropped and the remaining cues are numbered from 1.
func WriteSRT(segments []Segment) string {
	var b strings.Builder
	n := 0
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		n++
		if n > 1 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", n, FormatTimestamp(s.Start), FormatTimestamp(s.End), text)
	}
	return b.String()
}

// FormatTimestamp formats d as HH:MM:SS,mmm
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3600000, (ms%3600000)/60000, (ms%60000)/1000, ms%1000)
}
