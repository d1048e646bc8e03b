package raster

import (
	"fmt"
	"image"
	"image/draw"
)

// MaxPixels bounds the size of any surface allocated by the pipeline.
const MaxPixels = 1 << 26

// PixelBuffer is a row-major, top-left origin RGBA buffer with
// non-premultiplied samples.
type PixelBuffer struct {
	width  int
	height int
	pix    []uint8
}

// New allocates a transparent black buffer.
func New(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: buffer %dx%d", ErrDimension, width, height)
	}
	if width > MaxPixels/height {
		return nil, fmt.Errorf("%w: buffer %dx%d exceeds %d pixels", ErrContext, width, height, MaxPixels)
	}
	return &PixelBuffer{
		width:  width,
		height: height,
		pix:    make([]uint8, width*height*4),
	}, nil
}

// Wrap adopts pix without copying. len(pix) must equal width*height*4.
func Wrap(width, height int, pix []uint8) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: buffer %dx%d", ErrDimension, width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d RGBA", ErrDimension, len(pix), width, height)
	}
	return &PixelBuffer{width: width, height: height, pix: pix}, nil
}

func (b *PixelBuffer) Width() int  { return b.width }
func (b *PixelBuffer) Height() int { return b.height }

// Stride is the byte distance between the starts of two adjacent rows.
func (b *PixelBuffer) Stride() int { return b.width * 4 }

// Pix exposes the backing samples.
func (b *PixelBuffer) Pix() []uint8 { return b.pix }

// Offset returns the index of the R sample of pixel (x, y).
func (b *PixelBuffer) Offset(x, y int) int { return y*b.width*4 + x*4 }

// At returns the RGBA samples of pixel (x, y).
func (b *PixelBuffer) At(x, y int) (r, g, bl, a uint8) {
	i := b.Offset(x, y)
	s := b.pix[i : i+4 : i+4]
	return s[0], s[1], s[2], s[3]
}

// Set stores the RGBA samples of pixel (x, y).
func (b *PixelBuffer) Set(x, y int, r, g, bl, a uint8) {
	i := b.Offset(x, y)
	s := b.pix[i : i+4 : i+4]
	s[0], s[1], s[2], s[3] = r, g, bl, a
}

// Alpha returns the alpha sample of pixel (x, y).
func (b *PixelBuffer) Alpha(x, y int) uint8 { return b.pix[b.Offset(x, y)+3] }

// SetAlpha replaces the alpha sample of pixel (x, y), leaving colour untouched.
func (b *PixelBuffer) SetAlpha(x, y int, a uint8) { b.pix[b.Offset(x, y)+3] = a }

// AlphaPlane copies the alpha channel into a width*height slice.
func (b *PixelBuffer) AlphaPlane() []uint8 {
	plane := make([]uint8, b.width*b.height)
	for i := range plane {
		plane[i] = b.pix[i*4+3]
	}
	return plane
}

// SetAlphaPlane writes plane back into the alpha channel.
func (b *PixelBuffer) SetAlphaPlane(plane []uint8) error {
	if len(plane) != b.width*b.height {
		return fmt.Errorf("%w: alpha plane of %d samples for %dx%d", ErrDimension, len(plane), b.width, b.height)
	}
	for i, a := range plane {
		b.pix[i*4+3] = a
	}
	return nil
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.pix))
	copy(pix, b.pix)
	return &PixelBuffer{width: b.width, height: b.height, pix: pix}
}

// Opaque reports whether every alpha sample is 255.
func (b *PixelBuffer) Opaque() bool {
	for i := 3; i < len(b.pix); i += 4 {
		if b.pix[i] != 255 {
			return false
		}
	}
	return true
}

// NRGBA views the buffer as an *image.NRGBA sharing the same samples.
func (b *PixelBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.pix,
		Stride: b.Stride(),
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}

// FromImage converts any decoded image into a fresh buffer.
func FromImage(img image.Image) (*PixelBuffer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrDimension)
	}
	bounds := img.Bounds()
	buf, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	dst := buf.NRGBA()
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < buf.height; y++ {
			start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[start:start+dst.Stride])
		}
		return buf, nil
	}
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return buf, nil
}
