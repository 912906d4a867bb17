// Package qrcode renders QR codes that link to public menus.
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/boombuler/barcode/qr"
)

// Box sizes in pixels per module.
const (
	InlineBoxSize   = 10
	DownloadBoxSize = 8
)

// DefaultBorder is the quiet zone width in modules.
const DefaultBorder = 4

// Options controls QR rendering.
type Options struct {
	BoxSize int
	Border  int
}

var palette = color.Palette{color.White, color.Black}

// Encode renders content as a PNG QR code at error correction level L.
func Encode(content string, opts Options) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qrcode: empty content")
	}
	if opts.BoxSize <= 0 {
		opts.BoxSize = InlineBoxSize
	}
	if opts.Border < 0 {
		opts.Border = DefaultBorder
	}

	code, err := qr.Encode(content, qr.L, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}

	modules := code.Bounds().Dx()
	size := (modules + 2*opts.Border) * opts.BoxSize
	img := image.NewPaletted(image.Rect(0, 0, size, size), palette)

	origin := code.Bounds().Min
	for my := 0; my < modules; my++ {
		for mx := 0; mx < modules; mx++ {
			if !dark(code.At(origin.X+mx, origin.Y+my)) {
				continue
			}
			x0 := (mx + opts.Border) * opts.BoxSize
			y0 := (my + opts.Border) * opts.BoxSize
			for y := y0; y < y0+opts.BoxSize; y++ {
				for x := x0; x < x0+opts.BoxSize; x++ {
					img.SetColorIndex(x, y, 1)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qrcode: png: %w", err)
	}
	return buf.Bytes(), nil
}

func dark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r+g+b < 3*0x8000
}
