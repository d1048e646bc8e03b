package refine

import (
	"fmt"
	"math"

	"github.com/chaos-io/cutout/raster"
)

const (
	// smoothingDeadZone is the strength at or below which smoothing is skipped.
	smoothingDeadZone = 0.1
	maxRadius         = 3
)

// Radius returns the box blur radius for a smoothing strength, or 0 when the
// strength falls inside the dead zone.
func Radius(strength float64) int {
	if !(strength > smoothingDeadZone) {
		return 0
	}
	return min(maxRadius, max(1, int(math.Ceil(strength*maxRadius))))
}

// Smooth box blurs an alpha plane of width x height samples. Every output
// sample is the rounded mean of the in-bounds samples within Chebyshev
// distance Radius(strength); out-of-bounds neighbours count toward neither the
// sum nor the divisor. The input plane is never modified.
func Smooth(plane []uint8, width, height int, strength float64) ([]uint8, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: alpha plane %dx%d", raster.ErrDimension, width, height)
	}
	if len(plane) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", raster.ErrDimension, len(plane), width, height)
	}

	out := make([]uint8, len(plane))
	r := Radius(strength)
	if r == 0 {
		copy(out, plane)
		return out, nil
	}

	// Horizontal window sums, one row at a time from a running prefix.
	hsum := make([]uint32, len(plane))
	prefix := make([]uint32, width+1)
	for y := 0; y < height; y++ {
		row := plane[y*width : (y+1)*width]
		for x, a := range row {
			prefix[x+1] = prefix[x] + uint32(a)
		}
		for x := 0; x < width; x++ {
			lo, hi := max(0, x-r), min(width-1, x+r)
			hsum[y*width+x] = prefix[hi+1] - prefix[lo]
		}
	}

	// Vertical prefix of the horizontal sums, then window differences.
	vprefix := make([]uint32, (height+1)*width)
	for y := 0; y < height; y++ {
		cur := vprefix[y*width : (y+1)*width]
		next := vprefix[(y+1)*width : (y+2)*width]
		for x := 0; x < width; x++ {
			next[x] = cur[x] + hsum[y*width+x]
		}
	}
	for y := 0; y < height; y++ {
		y0, y1 := max(0, y-r), min(height-1, y+r)
		rows := uint32(y1 - y0 + 1)
		for x := 0; x < width; x++ {
			x0, x1 := max(0, x-r), min(width-1, x+r)
			n := rows * uint32(x1-x0+1)
			sum := vprefix[(y1+1)*width+x] - vprefix[y0*width+x]
			out[y*width+x] = uint8((sum + n/2) / n)
		}
	}
	return out, nil
}

// smoothNaive is the direct O(w·h·r²) box blur that Smooth must reproduce.
func smoothNaive(plane []uint8, width, height int, strength float64) []uint8 {
	out := make([]uint8, len(plane))
	r := Radius(strength)
	if r == 0 {
		copy(out, plane)
		return out
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, n uint32
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < width && ny >= 0 && ny < height {
						sum += uint32(plane[ny*width+nx])
						n++
					}
				}
			}
			out[y*width+x] = uint8((sum + n/2) / n)
		}
	}
	return out
}

// SmoothBuffer smooths the alpha channel of buf in place.
func SmoothBuffer(buf *raster.PixelBuffer, strength float64) error {
	if Radius(strength) == 0 {
		return nil
	}
	plane, err := Smooth(buf.AlphaPlane(), buf.Width(), buf.Height(), strength)
	if err != nil {
		return err
	}
	return buf.SetAlphaPlane(plane)
}
