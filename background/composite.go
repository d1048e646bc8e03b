// Package background paints solid, gradient or image backgrounds beneath a
// cutout using source-over compositing.
package background

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/chaos-io/cutout/raster"
)

// Composite layers cutout over the background described by spec. A
// transparent spec hands cutout back untouched; every other kind returns a
// new, fully opaque buffer of the same size.
func Composite(cutout *raster.PixelBuffer, spec Spec) (*raster.PixelBuffer, error) {
	if cutout == nil {
		return nil, fmt.Errorf("%w: missing cutout", raster.ErrDimension)
	}
	if spec.Kind == KindTransparent {
		return cutout, nil
	}

	bg, err := raster.New(cutout.Width(), cutout.Height())
	if err != nil {
		return nil, err
	}
	switch spec.Kind {
	case KindSolid:
		fill(bg, spec.Color1)
	case KindGradient:
		gradient(bg, spec.Color1, spec.Color2)
	case KindImage:
		if err := stretch(bg, spec.Image); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown background kind %v", spec.Kind)
	}

	Over(bg, cutout)
	return bg, nil
}

// Over draws fg onto the opaque buffer dst: out = fg·a + dst·(1-a) per
// channel, rounded to the nearest byte. dst stays opaque.
func Over(dst, fg *raster.PixelBuffer) {
	d, s := dst.Pix(), fg.Pix()
	for i := 0; i < len(d); i += 4 {
		a := uint32(s[i+3])
		switch a {
		case 255:
			d[i], d[i+1], d[i+2] = s[i], s[i+1], s[i+2]
		case 0:
		default:
			na := 255 - a
			d[i] = uint8((uint32(s[i])*a + uint32(d[i])*na + 127) / 255)
			d[i+1] = uint8((uint32(s[i+1])*a + uint32(d[i+1])*na + 127) / 255)
			d[i+2] = uint8((uint32(s[i+2])*a + uint32(d[i+2])*na + 127) / 255)
		}
		d[i+3] = 255
	}
}

func fill(dst *raster.PixelBuffer, c color.NRGBA) {
	pix := dst.Pix()
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, 255
	}
}

// gradient interpolates along the top-left to bottom-right diagonal over
// pixel indices, so the two corner pixels carry c1 and c2 exactly.
func gradient(dst *raster.PixelBuffer, c1, c2 color.NRGBA) {
	from, to := toColorful(c1), toColorful(c2)
	w, h := dst.Width(), dst.Height()
	dx, dy := float64(w-1), float64(h-1)
	length := dx*dx + dy*dy
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := 0.0
			if length > 0 {
				t = (float64(x)*dx + float64(y)*dy) / length
			}
			r, g, b := from.BlendRgb(to, t).RGB255()
			dst.Set(x, y, r, g, b, 255)
		}
	}
}

// stretch scales img onto dst ignoring its aspect ratio. The background is
// treated as opaque whatever alpha it carries.
func stretch(dst, img *raster.PixelBuffer) error {
	if img == nil {
		return fmt.Errorf("%w: missing background image", raster.ErrDimension)
	}
	out := dst.NRGBA()
	if img.Width() == dst.Width() && img.Height() == dst.Height() {
		copy(out.Pix, img.Pix())
	} else {
		src := img.NRGBA()
		draw.BiLinear.Scale(out, out.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return nil
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
