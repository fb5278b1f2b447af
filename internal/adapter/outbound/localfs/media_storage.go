package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/omnimedia/server/internal/port/outbound"
)

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Config holds local storage configuration.
type Config struct {
	Root          string `mapstructure:"root"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// MediaStorage writes media under Root/media/YYYY/MM/DD/<request>/.
// URLs point at PublicBaseURL when set, otherwise at the file itself.
type MediaStorage struct {
	root    string
	baseURL string
	now     func() time.Time
}

// NewMediaStorage creates a local storage adapter.
func NewMediaStorage(cfg *Config) (*MediaStorage, error) {
	root := cfg.Root
	if root == "" {
		root = "./data"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &MediaStorage{
		root:    abs,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		now:     time.Now,
	}, nil
}

// Name returns the backend name.
func (s *MediaStorage) Name() string {
	return "local"
}

// Put writes data to disk. ttl is ignored; local files do not expire.
func (s *MediaStorage) Put(ctx context.Context, requestID, mediaType string, index int, data []byte, ext string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := filepath.Join(
		"media",
		s.now().UTC().Format("2006"),
		s.now().UTC().Format("01"),
		s.now().UTC().Format("02"),
		safeSegment(requestID),
		fmt.Sprintf("%s_%d.%s", safeSegment(mediaType), index, safeSegment(ext)),
	)
	full := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}

	if s.baseURL != "" {
		return s.baseURL + "/" + filepath.ToSlash(rel), nil
	}
	return "file://" + filepath.ToSlash(full), nil
}

func safeSegment(s string) string {
	s = unsafeSegment.ReplaceAllString(s, "_")
	if s == "" {
		return "_"
	}
	return s
}

// Compile-time check
var _ outbound.MediaStoragePort = (*MediaStorage)(nil)
