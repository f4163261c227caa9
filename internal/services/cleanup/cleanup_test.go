package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobCleaner struct {
	retention time.Duration
	calls     int
}

func (f *fakeJobCleaner) CleanupOldJobs(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	f.calls++
	return 0, nil
}

func writeAged(t *testing.T, path string, age time.Duration) {
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "upload_1_a.mp4"), 2*time.Hour)
	writeAged(t, filepath.Join(dir, "BV1xx.wav"), 2*time.Hour)
	writeAged(t, filepath.Join(dir, "fresh.mp4"), time.Minute)
	writeAged(t, filepath.Join(dir, "notes.txt"), 2*time.Hour)

	jobs := &fakeJobCleaner{}
	s := NewService(dir, time.Hour, time.Hour, jobs, 24*time.Hour)
	s.cleanup(context.Background())

	assert.NoFileExists(t, filepath.Join(dir, "upload_1_a.mp4"))
	assert.NoFileExists(t, filepath.Join(dir, "BV1xx.wav"))
	assert.FileExists(t, filepath.Join(dir, "fresh.mp4"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.Equal(t, 1, jobs.calls)
	assert.Equal(t, 24*time.Hour, jobs.retention)
}

func TestCleanupMissingTempDir(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "missing"), time.Hour, time.Hour, nil, 0)
	s.cleanup(context.Background())
}

func TestCleanupSingleFile(t *testing.T) {
	dir := t.TempDir()
	inside := filepath.Join(dir, "upload_x.mp4")
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0o644))

	outsideDir := t.TempDir()
	outside := filepath.Join(outsideDir, "keep.mp4")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	CleanupSingleFile(dir, outside)
	assert.FileExists(t, outside)

	CleanupSingleFile(dir, filepath.Join(dir, "..", filepath.Base(outsideDir), "keep.mp4"))
	assert.FileExists(t, outside)

	CleanupSingleFile(dir, inside)
	assert.NoFileExists(t, inside)

	CleanupSingleFile(dir, "")
}
