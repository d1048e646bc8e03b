package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Mask holds per-pixel foreground probabilities as float32 samples in [0,1],
// row-major with a top-left origin.
type Mask struct {
	Width  int
	Height int
	Values []float32
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: mask %dx%d", ErrDimension, width, height)
	}
	if width > MaxPixels/height {
		return nil, fmt.Errorf("%w: mask %dx%d exceeds %d pixels", ErrContext, width, height, MaxPixels)
	}
	return &Mask{Width: width, Height: height, Values: make([]float32, width*height)}, nil
}

// At returns the probability at (x, y).
func (m *Mask) At(x, y int) float32 { return m.Values[y*m.Width+x] }

// Validate checks the mask is present, non-empty, consistently sized and finite.
func (m *Mask) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: missing", ErrInvalidMask)
	}
	if m.Width <= 0 || m.Height <= 0 || len(m.Values) == 0 {
		return fmt.Errorf("%w: empty %dx%d", ErrInvalidMask, m.Width, m.Height)
	}
	if len(m.Values) != m.Width*m.Height {
		return fmt.Errorf("%w: %d samples for %dx%d", ErrInvalidMask, len(m.Values), m.Width, m.Height)
	}
	for i, v := range m.Values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite sample at %d", ErrInvalidMask, i)
		}
	}
	return nil
}

// MaskFromImage reads probabilities from the luminance of img.
func MaskFromImage(img image.Image) (*Mask, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: missing", ErrInvalidMask)
	}
	bounds := img.Bounds()
	m, err := NewMask(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < m.Height; y++ {
			row := gray.Pix[gray.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := 0; x < m.Width; x++ {
				m.Values[y*m.Width+x] = float32(row[x]) / 255
			}
		}
		return m, nil
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			m.Values[y*m.Width+x] = float32(g.Y) / 0xffff
		}
	}
	return m, nil
}

// MaskFromAlpha reads probabilities from the alpha channel of buf.
func MaskFromAlpha(buf *PixelBuffer) (*Mask, error) {
	m, err := NewMask(buf.Width(), buf.Height())
	if err != nil {
		return nil, err
	}
	for i, a := range buf.AlphaPlane() {
		m.Values[i] = float32(a) / 255
	}
	return m, nil
}

// Gray renders the mask as an 8-bit grayscale image.
func (m *Mask) Gray() *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Values {
		gray.Pix[i] = uint8(math.Round(float64(clamp01(v)) * 255))
	}
	return gray
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
