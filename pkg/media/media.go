// Package media stores uploaded images and keeps them within display bounds.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/digimenu/pkg/domain"
)

// Storage folders, one per kind of asset.
const (
	FolderLogos = "restaurant_logos"
	FolderItems = "menu_items"
)

// ErrNotFound is returned when a stored asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Store persists assets under slash-separated keys.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// imageTypes maps sniffed content types to file extensions.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// MaxImagePixels caps width×height of an accepted image. Decoding allocates
// about four bytes per pixel, whatever the file size.
const MaxImagePixels = 40_000_000

// Upload is an image received from a form.
type Upload struct {
	Filename string
	Data     []byte
}

// ImageType sniffs the upload's content and returns its MIME type and
// extension. Declared content types and filenames are not trusted, and the
// header's dimensions must stay within MaxImagePixels.
func (u *Upload) ImageType() (contentType, ext string, err error) {
	if u == nil || len(u.Data) == 0 {
		return "", "", domain.ErrUnsupportedImage
	}
	contentType = http.DetectContentType(u.Data)
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", "", domain.ErrUnsupportedImage
	}
	if err := checkDimensions(u.Data); err != nil {
		return "", "", err
	}
	return contentType, ext, nil
}

// checkDimensions reads only the image header.
func checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.ErrUnsupportedImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return domain.ErrImageDimensions
	}
	return nil
}

// SaveImage validates u and stores it under folder with a fresh name,
// returning the asset key.
func SaveImage(ctx context.Context, store Store, folder string, u *Upload) (string, error) {
	contentType, ext, err := u.ImageType()
	if err != nil {
		return "", err
	}
	key := path.Join(folder, uuid.NewString()+ext)
	if err := store.Put(ctx, key, contentType, bytes.NewReader(u.Data)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// validKey rejects keys that could escape the storage root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
