// Package pipeline wires segmentation, refinement, background compositing
// and export into a single call per image.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/nfnt/resize"

	"github.com/chaos-io/cutout/background"
	"github.com/chaos-io/cutout/export"
	"github.com/chaos-io/cutout/raster"
	"github.com/chaos-io/cutout/refine"
)

// DefaultMaxDimension caps the longest side handed to the segmenter.
const DefaultMaxDimension = 1024

// Segmenter estimates a foreground probability mask for src. The mask may
// have any resolution with the same aspect ratio as src. Implementations
// must not retain or modify src.
type Segmenter interface {
	Segment(ctx context.Context, src *raster.PixelBuffer) (*raster.Mask, error)
}

// SegmenterFunc adapts a function to Segmenter.
type SegmenterFunc func(ctx context.Context, src *raster.PixelBuffer) (*raster.Mask, error)

func (f SegmenterFunc) Segment(ctx context.Context, src *raster.PixelBuffer) (*raster.Mask, error) {
	return f(ctx, src)
}

// Progress receives completion percentages at stage boundaries.
type Progress func(percent int)

// Progress milestones reported by Run.
const (
	ProgressStarted   = 10
	ProgressPrepared  = 30
	ProgressSegmented = 50
	ProgressMasked    = 70
	ProgressRefined   = 85
	ProgressDone      = 100
)

// Options configures one pipeline run.
type Options struct {
	Refinement refine.Params
	Background background.Spec
	Format     export.Format
	// MaxDimension downscales larger sources before segmentation; 0 disables.
	MaxDimension int
	Progress     Progress
}

// DefaultOptions returns a transparent PNG cutout with default refinement.
func DefaultOptions() Options {
	return Options{
		Refinement:   refine.DefaultParams(),
		Background:   background.Transparent(),
		Format:       export.PNG,
		MaxDimension: DefaultMaxDimension,
	}
}

func (o Options) report(p int) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

// Result is the encoded output of a run.
type Result struct {
	*export.Result
	Width   int
	Height  int
	Resized bool
}

// Run removes the background of src using seg and encodes the result.
func Run(ctx context.Context, src image.Image, seg Segmenter, opts Options) (*Result, error) {
	if seg == nil {
		return nil, fmt.Errorf("%w: no segmenter", raster.ErrInvalidMask)
	}
	opts.report(ProgressStarted)

	// 1. decode into an owned buffer, downscaled for the model if needed
	buf, resized, err := prepare(src, opts.MaxDimension)
	if err != nil {
		return nil, err
	}
	slog.Debug("source prepared", "width", buf.Width(), "height", buf.Height(), "resized", resized)
	opts.report(ProgressPrepared)

	// 2. segment
	opts.report(ProgressSegmented)
	mask, err := seg.Segment(ctx, buf)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if mask == nil {
		return nil, fmt.Errorf("%w: segmenter returned no mask", raster.ErrInvalidMask)
	}
	slog.Debug("mask received", "width", mask.Width, "height", mask.Height)
	opts.report(ProgressMasked)

	// 3. refine, composite, encode
	res, err := finish(buf, mask, opts)
	if err != nil {
		return nil, err
	}
	res.Resized = resized
	return res, nil
}

// Cutout runs the pipeline with a mask the caller already has. src is
// consumed: its alpha channel is overwritten.
func Cutout(src *raster.PixelBuffer, mask *raster.Mask, opts Options) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: missing source image", raster.ErrDimension)
	}
	opts.report(ProgressStarted)
	opts.report(ProgressMasked)
	return finish(src, mask, opts)
}

func finish(buf *raster.PixelBuffer, mask *raster.Mask, opts Options) (*Result, error) {
	params := opts.Refinement.Clamped()
	if err := refine.Cutout(buf, mask, params); err != nil {
		return nil, err
	}
	opts.report(ProgressRefined)

	out, err := background.Composite(buf, opts.Background)
	if err != nil {
		return nil, fmt.Errorf("composite %v background: %w", opts.Background.Kind, err)
	}
	encoded, err := export.Encode(out, opts.Format)
	if err != nil {
		return nil, err
	}
	opts.report(ProgressDone)

	return &Result{
		Result: encoded,
		Width:  out.Width(),
		Height: out.Height(),
	}, nil
}

// prepare converts src into a buffer whose longest side is at most maxSize.
func prepare(src image.Image, maxSize int) (*raster.PixelBuffer, bool, error) {
	if src == nil {
		return nil, false, fmt.Errorf("%w: missing source image", raster.ErrDimension)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, false, fmt.Errorf("%w: source %dx%d", raster.ErrDimension, w, h)
	}

	longest := max(w, h)
	if maxSize <= 0 || longest <= maxSize {
		buf, err := raster.FromImage(src)
		return buf, false, err
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(math.Round(float64(w)*scale)))
	newH := max(1, int(math.Round(float64(h)*scale)))
	resized := resize.Resize(uint(newW), uint(newH), src, resize.Lanczos3)
	buf, err := raster.FromImage(resized)
	return buf, true, err
}
