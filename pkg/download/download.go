package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrTooLarge is returned when a response exceeds DownloadOptions.MaxSize
var ErrTooLarge = errors.New("download exceeds size limit")

// DownloadOptions configures the download behavior
type DownloadOptions struct {
	MaxSize      int64         // Maximum file size in bytes (0 = no limit)
	Timeout      time.Duration // Download timeout
	ProgressFunc ProgressFunc  // Optional progress callback
	UserAgent    string        // Used when the caller supplies no User-Agent header
}

// ProgressFunc is called during download to report progress
type ProgressFunc func(downloaded, total int64)

// DefaultOptions returns default download options
func DefaultOptions() DownloadOptions {
	return DownloadOptions{
		MaxSize:   2 << 30, // 2GB
		Timeout:   10 * time.Minute,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// DownloadResult contains information about a successful download
type DownloadResult struct {
	FilePath      string // Path to downloaded file
	ContentType   string // Content-Type from response
	ContentLength int64  // Size in bytes
}

// Downloader streams remote media to local files
type Downloader struct {
	client  *http.Client
	options DownloadOptions
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options DownloadOptions) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // media is already compressed
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// DownloadToFile streams url to dest using the given request headers. The body
// is written to a sibling temp file and renamed into place once complete, so
// dest never holds a partial download.
func (d *Downloader) DownloadToFile(ctx context.Context, url, dest string, headers map[string]string) (*DownloadResult, error) {
	slog.Debug("starting download", "url", url, "dest", dest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" && d.options.UserAgent != "" {
		req.Header.Set("User-Agent", d.options.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	contentLength := resp.ContentLength
	if d.options.MaxSize > 0 && contentLength > d.options.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, contentLength, d.options.MaxSize)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create destination dir: %w", err)
	}
	tempFile, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	written, err := d.copyBody(resp.Body, tempFile, contentLength)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to move download into place: %w", err)
	}

	slog.Debug("download complete", "bytes", written, "dest", dest)

	return &DownloadResult{
		FilePath:      dest,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: written,
	}, nil
}

// copyBody copies the response body with optional progress tracking and size limit
func (d *Downloader) copyBody(src io.Reader, dst io.Writer, totalSize int64) (int64, error) {
	reader := src
	if d.options.ProgressFunc != nil {
		reader = &progressReader{
			reader:   src,
			total:    totalSize,
			callback: d.options.ProgressFunc,
		}
	}

	if d.options.MaxSize <= 0 {
		return io.Copy(dst, reader)
	}

	// Read one byte past the limit to detect oversize bodies without a Content-Length
	written, err := io.Copy(dst, io.LimitReader(reader, d.options.MaxSize+1))
	if err != nil {
		return written, err
	}
	if written > d.options.MaxSize {
		return written, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.options.MaxSize)
	}
	return written, nil
}

// CleanupOldFiles removes files matching pattern under dir that are older than maxAge
func CleanupOldFiles(dir, pattern string, maxAge time.Duration) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		slog.Debug("cleaned up old temp files", "dir", dir, "count", removed)
	}
	return removed, nil
}

// IsRemote reports whether s looks like an http(s) URL
func IsRemote(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// progressReader wraps a reader to report progress
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.callback != nil {
			pr.callback(pr.downloaded, pr.total)
		}
	}
	return n, err
}
