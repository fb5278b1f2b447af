package localfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestMediaStorage_Put(t *testing.T) {
	root := t.TempDir()
	s, err := NewMediaStorage(&Config{Root: root})
	require.NoError(t, err)
	s.now = fixedNow

	url, err := s.Put(context.Background(), "req-9", "video", 1, []byte("mp4-data"), "mp4", time.Hour)
	require.NoError(t, err)

	want := filepath.Join(root, "media", "2026", "01", "02", "req-9", "video_1.mp4")
	assert.Equal(t, "file://"+filepath.ToSlash(want), url)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-data"), data)
	assert.Equal(t, "local", s.Name())
}

func TestMediaStorage_PublicURL(t *testing.T) {
	s, err := NewMediaStorage(&Config{Root: t.TempDir(), PublicBaseURL: "https://cdn.example/"})
	require.NoError(t, err)
	s.now = fixedNow

	url, err := s.Put(context.Background(), "a/../../b", "image", 0, []byte("x"), "png", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/media/2026/01/02/a_b/image_0.png", url)
}

func TestMediaStorage_CanceledContext(t *testing.T) {
	s, err := NewMediaStorage(&Config{Root: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "r", "image", 0, []byte("x"), "png", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
