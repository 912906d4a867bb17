package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// Bounds is the largest width and height an asset may have.
type Bounds struct {
	Width  int
	Height int
}

var (
	// LogoBounds applies to restaurant logos.
	LogoBounds = Bounds{Width: 300, Height: 300}
	// ItemPhotoBounds applies to menu item photos.
	ItemPhotoBounds = Bounds{Width: 600, Height: 600}
)

// Fit returns the largest size with the same aspect ratio as w×h that fits
// within b. Sizes already inside b are returned unchanged.
func (b Bounds) Fit(w, h int) (int, int) {
	if w <= b.Width && h <= b.Height {
		return w, h
	}
	// Compare w/h against b.Width/b.Height without floating point.
	if w*b.Height >= h*b.Width {
		return b.Width, max(1, h*b.Width/w)
	}
	return max(1, w*b.Height/h), b.Height
}

// Normalize downscales the stored image at key in place so it fits within
// bounds, keeping its format. It reports whether the asset was rewritten.
func Normalize(ctx context.Context, store Store, key string, bounds Bounds) (bool, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", key, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	if err := checkDimensions(data); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	nw, nh := bounds.Fit(w, h)
	if nw == w && nh == h {
		return false, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "jpeg":
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	case "png":
		contentType = "image/png"
		err = png.Encode(&buf, dst)
	case "gif":
		contentType = "image/gif"
		err = gif.Encode(&buf, dst, nil)
	default:
		return false, fmt.Errorf("normalize %s: unsupported format %q", key, format)
	}
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}

	if err := store.Put(ctx, key, contentType, &buf); err != nil {
		return false, fmt.Errorf("write %s: %w", key, err)
	}
	return true, nil
}
