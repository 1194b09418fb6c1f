// Package raster normalizes decoded images into flat row-major pixel
// buffers so two rasters of the same size can be walked by index.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"

	i2stypes "img2svg/type"
)

// Pixels is a decoded raster: Channels values per pixel in row-major
// scan order. Channels is 3 for opaque sources and 4 when an alpha
// channel carries information. Gray marks single-channel sources,
// which have no color fidelity to recover downstream.
type Pixels struct {
	Width    int
	Height   int
	Channels int
	Gray     bool
	data     []uint8
}

// DecodeImage decodes an image buffer. PNG is the enforced input
// format; the registered decoders decide.
func DecodeImage(buf []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("raster: decode: %w", err)
	}
	return img, nil
}

// Decode decodes a buffer straight into a pixel grid.
func Decode(buf []byte) (*Pixels, error) {
	img, err := DecodeImage(buf)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage flattens any image into a Pixels grid. Non-NRGBA sources
// are redrawn through x/image/draw first so channel access is uniform.
func FromImage(img image.Image) *Pixels {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	}

	gray := false
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		gray = true
	}

	channels := 3
	if !nrgba.Opaque() {
		channels = 4
	}

	p := &Pixels{
		Width:    w,
		Height:   h,
		Channels: channels,
		Gray:     gray,
		data:     make([]uint8, w*h*channels),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := nrgba.Pix[y*nrgba.Stride+x*4:]
			dst := p.data[(y*w+x)*channels:]
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			if channels == 4 {
				dst[3] = src[3]
			}
		}
	}
	return p
}

// Len is the pixel count; indices run [0, Len).
func (p *Pixels) Len() int { return p.Width * p.Height }

// At returns the i-th pixel as an opaque Color. A 4th channel is
// composited over white first, matching how the traced output renders.
func (p *Pixels) At(i int) i2stypes.Color {
	px := p.data[i*p.Channels:]
	r, g, b := px[0], px[1], px[2]
	if p.Channels == 4 && px[3] < 255 {
		a := float64(px[3]) / 255.0
		r = compositeWhite(r, a)
		g = compositeWhite(g, a)
		b = compositeWhite(b, a)
	}
	return i2stypes.FromRGB255(r, g, b)
}

func compositeWhite(v uint8, a float64) uint8 {
	return uint8(float64(v)*a + 255.0*(1-a) + 0.5)
}

// Luminance is the i-th pixel's Rec. 601 luma in [0,255].
func (p *Pixels) Luminance(i int) float64 {
	px := p.data[i*p.Channels:]
	return 0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2])
}

// EncodePNG is the inverse convenience for tests and frame handling.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("raster: encode: %w", err)
	}
	return buf.Bytes(), nil
}
