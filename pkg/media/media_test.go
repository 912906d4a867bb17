package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/digimenu/pkg/domain"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func encodeGIF(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	return store
}

func decodeStored(t *testing.T, store Store, key string) (image.Config, string) {
	t.Helper()
	rc, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	cfg, format, err := image.DecodeConfig(rc)
	require.NoError(t, err)
	return cfg, format
}

func TestBoundsFit(t *testing.T) {
	tests := []struct {
		name         string
		bounds       Bounds
		w, h         int
		wantW, wantH int
	}{
		{"inside bounds untouched", ItemPhotoBounds, 400, 300, 400, 300},
		{"exactly at bounds untouched", LogoBounds, 300, 300, 300, 300},
		{"wide image", ItemPhotoBounds, 1200, 800, 600, 400},
		{"tall image", ItemPhotoBounds, 800, 1600, 300, 600},
		{"square logo", LogoBounds, 1000, 1000, 300, 300},
		{"very thin image keeps one pixel", LogoBounds, 3000, 1, 300, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH := tt.bounds.Fit(tt.w, tt.h)
			assert.Equal(t, tt.wantW, gotW, "width")
			assert.Equal(t, tt.wantH, gotH, "height")
		})
	}
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		data        func(t *testing.T) []byte
		bounds      Bounds
		wantChanged bool
		wantW       int
		wantH       int
		wantFormat  string
	}{
		{
			name:        "large png downscaled",
			data:        func(t *testing.T) []byte { return encodePNG(t, testImage(1200, 800)) },
			bounds:      ItemPhotoBounds,
			wantChanged: true,
			wantW:       600,
			wantH:       400,
			wantFormat:  "png",
		},
		{
			name:        "large jpeg logo downscaled",
			data:        func(t *testing.T) []byte { return encodeJPEG(t, testImage(900, 600)) },
			bounds:      LogoBounds,
			wantChanged: true,
			wantW:       300,
			wantH:       200,
			wantFormat:  "jpeg",
		},
		{
			name:        "gif keeps format",
			data:        func(t *testing.T) []byte { return encodeGIF(t, testImage(400, 800)) },
			bounds:      LogoBounds,
			wantChanged: true,
			wantW:       150,
			wantH:       300,
			wantFormat:  "gif",
		},
		{
			name:        "small image untouched",
			data:        func(t *testing.T) []byte { return encodePNG(t, testImage(120, 80)) },
			bounds:      ItemPhotoBounds,
			wantChanged: false,
			wantW:       120,
			wantH:       80,
			wantFormat:  "png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newLocalStore(t)
			key, err := SaveImage(ctx, store, FolderItems, &Upload{Filename: "photo", Data: tt.data(t)})
			require.NoError(t, err)

			changed, err := Normalize(ctx, store, key, tt.bounds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)

			cfg, format := decodeStored(t, store, key)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	_, err := Normalize(ctx, store, "menu_items/missing.png", ItemPhotoBounds)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "menu_items/broken.png", "image/png", strings.NewReader("not an image")))
	_, err = Normalize(ctx, store, "menu_items/broken.png", ItemPhotoBounds)
	assert.Error(t, err)
}

// oversizedPNG is a tiny PNG whose header claims w×h pixels.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := encodePNG(t, testImage(1, 1))
	// IHDR data starts after the 8-byte signature, length and chunk type.
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestImageType_Dimensions(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"ordinary photo", encodePNG(t, testImage(40, 30)), nil},
		{"at the pixel cap", oversizedPNG(t, 8000, 5000), nil},
		{"header claims too many pixels", oversizedPNG(t, 50000, 50000), domain.ErrImageDimensions},
		{"one very long side", oversizedPNG(t, 1<<30, 1), domain.ErrImageDimensions},
		{"truncated header", encodePNG(t, testImage(4, 4))[:20], domain.ErrUnsupportedImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := (&Upload{Filename: "dish.png", Data: tt.data}).ImageType()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalize_RefusesOversizedHeader(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)
	require.NoError(t, store.Put(ctx, "menu_items/bomb.png", "image/png", bytes.NewReader(oversizedPNG(t, 50000, 50000))))

	rewritten, err := Normalize(ctx, store, "menu_items/bomb.png", ItemPhotoBounds)
	assert.ErrorIs(t, err, domain.ErrImageDimensions)
	assert.False(t, rewritten)
}

func TestSaveImage(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	t.Run("stores with sniffed extension", func(t *testing.T) {
		key, err := SaveImage(ctx, store, FolderLogos, &Upload{Filename: "logo.gif", Data: encodePNG(t, testImage(10, 10))})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(key, FolderLogos+"/"))
		assert.True(t, strings.HasSuffix(key, ".png"))
		assert.Equal(t, "/media/"+key, store.URL(key))
	})

	t.Run("rejects non images", func(t *testing.T) {
		_, err := SaveImage(ctx, store, FolderLogos, &Upload{Filename: "logo.png", Data: []byte("<html></html>")})
		assert.ErrorIs(t, err, domain.ErrUnsupportedImage)
	})

	t.Run("rejects empty upload", func(t *testing.T) {
		_, err := SaveImage(ctx, store, FolderLogos, &Upload{Filename: "logo.png"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedImage)
	})
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	require.NoError(t, store.Put(ctx, "a/b.txt", "text/plain", strings.NewReader("hello")))

	rc, err := store.Open(ctx, "a/b.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, "a/b.txt"))
	require.NoError(t, store.Delete(ctx, "a/b.txt"), "deleting twice is fine")

	_, err = store.Open(ctx, "a/b.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, key := range []string{"../escape.txt", "/abs.txt", "a//b.txt", ""} {
		assert.Error(t, store.Put(ctx, key, "text/plain", strings.NewReader("x")), "key %q", key)
	}
}
