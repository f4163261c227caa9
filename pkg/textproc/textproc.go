// Package textproc cleans transcript text and derives file-safe names and
// content digests.
package textproc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	unsafeNameRe = regexp.MustCompile(`[\\/:*?"<>|]`)
)

// sentenceEnds terminate a paragraph when they appear in transcript text
const sentenceEnds = "。！？.!?"

// Clean collapses every whitespace run to a single space and trims the result
func Clean(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// SplitParagraphs cleans text and splits it after each sentence terminator.
// Empty paragraphs are dropped; trailing text without a terminator becomes
// the last paragraph.
func SplitParagraphs(text string) []string {
	text = Clean(text)
	if text == "" {
		return nil
	}

	var (
		paragraphs []string
		current    strings.Builder
	)
	flush := func() {
		if p := strings.TrimSpace(current.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	for _, r := range text {
		current.WriteRune(r)
		if strings.ContainsRune(sentenceEnds, r) {
			flush()
		}
	}
	flush()

	return paragraphs
}

// SanitizeFilename replaces characters that are invalid in file names with "_"
func SanitizeFilename(name string) string {
	return unsafeNameRe.ReplaceAllString(name, "_")
}

// HashFile returns the hex sha256 digest of a file's contents
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashString returns the hex sha256 digest of s
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
