package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDownloader(t *testing.T) {
	options := DefaultOptions()
	downloader := NewDownloader(options)

	if downloader == nil {
		t.Fatal("NewDownloader returned nil")
	}
	if downloader.client == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if downloader.options.Timeout != options.Timeout {
		t.Errorf("Expected timeout %v, got %v", options.Timeout, downloader.options.Timeout)
	}
}

func TestDownloadToFile_Success(t *testing.T) {
	videoData := strings.Repeat("video-data", 128)
	var gotReferer, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte(videoData))
	}))
	defer server.Close()

	var lastProgress int64
	options := DefaultOptions()
	options.ProgressFunc = func(downloaded, total int64) { lastProgress = downloaded }
	downloader := NewDownloader(options)

	dest := filepath.Join(t.TempDir(), "nested", "BV1xx.mp4")
	result, err := downloader.DownloadToFile(context.Background(), server.URL, dest, map[string]string{
		"Referer": "https://www.bilibili.com/",
	})
	if err != nil {
		t.Fatalf("Expected successful download, got error: %v", err)
	}

	if result.FilePath != dest {
		t.Errorf("Expected file path %s, got %s", dest, result.FilePath)
	}
	if result.ContentLength != int64(len(videoData)) {
		t.Errorf("Expected content length %d, got %d", len(videoData), result.ContentLength)
	}
	if lastProgress != int64(len(videoData)) {
		t.Errorf("Expected progress to reach %d, got %d", len(videoData), lastProgress)
	}
	if gotReferer != "https://www.bilibili.com/" {
		t.Errorf("Expected Referer header to be forwarded, got %q", gotReferer)
	}
	if gotUA != options.UserAgent {
		t.Errorf("Expected default User-Agent, got %q", gotUA)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("Downloaded file unreadable: %v", err)
	}
	if string(data) != videoData {
		t.Error("Downloaded content mismatch")
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(dest), ".*.part"))
	if len(leftovers) != 0 {
		t.Errorf("Expected no partial files, found %v", leftovers)
	}
}

func TestDownloadToFile_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "video.mp4")
	_, err := NewDownloader(DefaultOptions()).DownloadToFile(context.Background(), server.URL, dest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("Expected 403 error, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("Expected no destination file after failure")
	}
}

func TestDownloadToFile_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing first forces chunked encoding so no Content-Length is sent
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	options := DefaultOptions()
	options.MaxSize = 16
	dir := t.TempDir()
	_, err := NewDownloader(options).DownloadToFile(context.Background(), server.URL, filepath.Join(dir, "video.mp4"), nil)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected empty dir after oversize download, found %d entries", len(entries))
	}
}

func TestCleanupOldFiles(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "upload_old.mp4")
	newFile := filepath.Join(dir, "upload_new.mp4")
	other := filepath.Join(dir, "keep.txt")
	for _, f := range []string{oldFile, newFile, other} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, past, past); err != nil {
		t.Fatal(err)
	}

	removed, err := CleanupOldFiles(dir, "upload_*", 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldFiles() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("Expected old upload to be removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Error("Expected new upload to remain")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Expected non-matching file to remain")
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://v.douyin.com/abc/": true,
		"HTTP://b23.tv/x":           true,
		"/data/video.mp4":           false,
		"video.mp4":                 false,
	}
	for in, want := range tests {
		if got := IsRemote(in); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", in, got, want)
		}
	}
}
