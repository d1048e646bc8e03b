// Package segment provides Segmenter implementations for the pipeline.
package segment

import (
	"context"
	"fmt"

	"github.com/chaos-io/cutout/raster"
)

// AlphaSegmenter reuses the alpha channel of an image that was already cut
// out, so re-exporting it with a new background needs no model call.
type AlphaSegmenter struct{}

func NewAlphaSegmenter() *AlphaSegmenter {
	return &AlphaSegmenter{}
}

func (a *AlphaSegmenter) Segment(_ context.Context, src *raster.PixelBuffer) (*raster.Mask, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: missing source image", raster.ErrDimension)
	}
	if !HasUsefulAlpha(src) {
		return nil, fmt.Errorf("%w: image is fully opaque", raster.ErrInvalidMask)
	}
	return raster.MaskFromAlpha(src)
}

// HasUsefulAlpha reports whether buf carries any transparency. A single
// alpha below 255 means the image was already cut out.
func HasUsefulAlpha(buf *raster.PixelBuffer) bool {
	return !buf.Opaque()
}
