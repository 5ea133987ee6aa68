package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://www.youtube.com/watch?v=abc123"))
	assert.True(t, IsRemote("http://example.com/video.mp4"))
	assert.False(t, IsRemote("/media/show/episode.mp4"))
	assert.False(t, IsRemote("episode.mp4"))
	assert.False(t, IsRemote("file:///media/episode.mp4"))
	assert.False(t, IsRemote("https://"))
}

func TestVideoID(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ", VideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", VideoID("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "video", VideoID("https://example.com/some/video.mp4"))
	assert.Equal(t, "video", VideoID("https://youtu.be/"))
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake"), 0644))

	got, err := Fetch(context.Background(), path, dir)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestFetchLocalFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Fetch(context.Background(), filepath.Join(dir, "nope.mp4"), dir)
	assert.ErrorContains(t, err, "not found")
}
