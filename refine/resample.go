package refine

import (
	"fmt"
	"math"

	"github.com/chaos-io/cutout/raster"
)

// Resample maps mask onto a width x height grid with bilinear sampling.
// Target pixel centres are projected into mask space and clamped at the
// border, so a same-size resample is the identity.
func Resample(mask *raster.Mask, width, height int) (*raster.Mask, error) {
	if mask == nil {
		return nil, fmt.Errorf("%w: missing", raster.ErrInvalidMask)
	}
	if mask.Width <= 0 || mask.Height <= 0 {
		return nil, fmt.Errorf("%w: mask %dx%d", raster.ErrDimension, mask.Width, mask.Height)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target %dx%d", raster.ErrDimension, width, height)
	}
	if len(mask.Values) != mask.Width*mask.Height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", raster.ErrInvalidMask, len(mask.Values), mask.Width, mask.Height)
	}

	out, err := raster.NewMask(width, height)
	if err != nil {
		return nil, err
	}
	if width == mask.Width && height == mask.Height {
		copy(out.Values, mask.Values)
		return out, nil
	}

	xs := axis(width, mask.Width)
	ys := axis(height, mask.Height)
	for y, sy := range ys {
		top := mask.Values[sy.lo*mask.Width:]
		bottom := mask.Values[sy.hi*mask.Width:]
		for x, sx := range xs {
			t := lerp(top[sx.lo], top[sx.hi], sx.frac)
			b := lerp(bottom[sx.lo], bottom[sx.hi], sx.frac)
			out.Values[y*width+x] = lerp(t, b, sy.frac)
		}
	}
	return out, nil
}

type tap struct {
	lo, hi int
	frac   float32
}

// axis precomputes the source taps for every destination index along one axis.
func axis(dst, src int) []tap {
	taps := make([]tap, dst)
	scale := float64(src) / float64(dst)
	for i := range taps {
		s := (float64(i)+0.5)*scale - 0.5
		s = math.Max(0, math.Min(float64(src-1), s))
		lo := int(s)
		hi := min(lo+1, src-1)
		taps[i] = tap{lo: lo, hi: hi, frac: float32(s - float64(lo))}
	}
	return taps
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
