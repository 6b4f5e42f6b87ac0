package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aawaaz/civic-portal/internal/models"
	"go.uber.org/zap"
)

// LocalStore writes attachments to disk. Used in development, where the
// server also serves the upload directory.
type LocalStore struct {
	dir       string
	publicURL string
	thumbBase string
	logger    *zap.SugaredLogger
}

// NewLocalStore creates dir if needed. publicURL is the URL prefix the
// directory is served under, e.g. http://localhost:5000/uploads.
func NewLocalStore(dir, publicURL, thumbBase string, logger *zap.SugaredLogger) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, Folder), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	publicURL = strings.TrimSuffix(publicURL, "/")
	if thumbBase == "" {
		thumbBase = publicURL
	}
	return &LocalStore{dir: dir, publicURL: publicURL, thumbBase: thumbBase, logger: logger}, nil
}

func (s *LocalStore) Put(ctx context.Context, u Upload) (*Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	key := newKey(u.Filename)
	dst, err := os.Create(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}

	s.logger.Debugw("Stored upload", "key", key, "size", u.Size)
	return &Stored{Key: key, URL: s.publicURL + "/" + key, Kind: Classify(u.ContentType)}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string, _ models.MediaType) error {
	if !validKey(key) {
		return fmt.Errorf("invalid media key %q", key)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStore) ThumbnailURL(key string, width, height int) string {
	return thumbnailURL(s.thumbBase, key, width, height)
}
