package segment

import (
	"context"
	"fmt"

	"github.com/chaos-io/cutout/raster"
	"github.com/chaos-io/cutout/util"
)

// StaticSegmenter hands out a mask computed elsewhere, e.g. a mask image
// exported by another tool.
type StaticSegmenter struct {
	mask *raster.Mask
}

func NewStaticSegmenter(mask *raster.Mask) *StaticSegmenter {
	return &StaticSegmenter{mask: mask}
}

// LoadMask reads a grayscale mask image from a path or URL.
func LoadMask(ctx context.Context, path string) (*StaticSegmenter, error) {
	img, err := util.LoadImage(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load mask %s: %w", path, err)
	}
	mask, err := raster.MaskFromImage(img)
	if err != nil {
		return nil, err
	}
	return NewStaticSegmenter(mask), nil
}

// Segment returns a copy of the mask so callers may keep reusing the segmenter.
func (s *StaticSegmenter) Segment(_ context.Context, _ *raster.PixelBuffer) (*raster.Mask, error) {
	if err := s.mask.Validate(); err != nil {
		return nil, err
	}
	out := &raster.Mask{Width: s.mask.Width, Height: s.mask.Height, Values: make([]float32, len(s.mask.Values))}
	copy(out.Values, s.mask.Values)
	return out, nil
}
