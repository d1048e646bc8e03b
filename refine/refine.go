package refine

import (
	"fmt"

	"github.com/chaos-io/cutout/raster"
)

// Cutout derives the alpha channel of src from mask in place: the mask is
// resampled to the image size, thresholded and smoothed.
func Cutout(src *raster.PixelBuffer, mask *raster.Mask, p Params) error {
	if src == nil {
		return fmt.Errorf("%w: missing source image", raster.ErrDimension)
	}
	if err := mask.Validate(); err != nil {
		return err
	}
	aligned, err := Resample(mask, src.Width(), src.Height())
	if err != nil {
		return fmt.Errorf("resample mask: %w", err)
	}
	if err := ApplyMask(src, aligned, p.Sensitivity); err != nil {
		return fmt.Errorf("apply mask: %w", err)
	}
	if err := SmoothBuffer(src, p.EdgeSmoothing); err != nil {
		return fmt.Errorf("smooth edges: %w", err)
	}
	return nil
}
