package refine

import (
	"fmt"
	"math"

	"github.com/chaos-io/cutout/raster"
)

// DeriveAlpha converts a probability into an opacity.
//
// Samples above 1-sensitivity become opaque, samples below sensitivity become
// transparent and everything in between passes through scaled to 0..255.
// Once sensitivity exceeds 0.5 the two bands overlap; a sample inside both is
// decided at the midpoint, so sensitivity 1 yields a hard mask split at 0.5.
func DeriveAlpha(sample, sensitivity float64) uint8 {
	sample = clamp(sample, 0, 1)
	sensitivity = clamp(sensitivity, 0, 1)

	opaque := sample > 1-sensitivity
	transparent := sample < sensitivity
	switch {
	case opaque && transparent:
		if sample >= 0.5 {
			return 255
		}
		return 0
	case opaque:
		return 255
	case transparent:
		return 0
	}
	return uint8(math.Round(sample * 255))
}

// ApplyMask replaces the alpha channel of src with the alpha derived from a
// mask already aligned to src. Colour samples are left untouched.
func ApplyMask(src *raster.PixelBuffer, mask *raster.Mask, sensitivity float64) error {
	if err := mask.Validate(); err != nil {
		return err
	}
	if mask.Width != src.Width() || mask.Height != src.Height() {
		return fmt.Errorf("%w: mask %dx%d, image %dx%d",
			raster.ErrDimension, mask.Width, mask.Height, src.Width(), src.Height())
	}

	pix := src.Pix()
	for i, v := range mask.Values {
		pix[i*4+3] = DeriveAlpha(float64(v), sensitivity)
	}
	return nil
}
