// Package media stores complaint attachments and derives their public URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/google/uuid"
)

// Folder is the key prefix every attachment is stored under
const Folder = "complaints_media"

// Thumbnail dimensions for video attachments
const (
	ThumbnailWidth  = 320
	ThumbnailHeight = 240
)

// Upload is a single incoming file. Open may be called once.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Stored describes an object after a successful upload
type Stored struct {
	Key  string
	URL  string
	Kind models.MediaType
}

// Store uploads and deletes attachment objects
type Store interface {
	Put(ctx context.Context, u Upload) (*Stored, error)
	Delete(ctx context.Context, key string, kind models.MediaType) error
	// ThumbnailURL derives a still-frame URL for a stored video. It is a pure
	// function of its arguments.
	ThumbnailURL(key string, width, height int) string
}

// Classify picks the attachment type from the declared content type
func Classify(contentType string) models.MediaType {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/") {
		return models.MediaVideo
	}
	return models.MediaImage
}

// newKey builds a collision-free object key that keeps the file extension
func newKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return Folder + "/" + uuid.NewString() + ext
}

// thumbnailURL renders {base}/thumbnails/{w}x{h}/{key-without-ext}.jpg
func thumbnailURL(base, key string, width, height int) string {
	stem := strings.TrimSuffix(key, path.Ext(key))
	return fmt.Sprintf("%s/thumbnails/%dx%d/%s.jpg", strings.TrimSuffix(base, "/"), width, height, stem)
}

func validKey(key string) bool {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return false
	}
	return strings.HasPrefix(key, Folder+"/")
}
