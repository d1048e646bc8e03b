package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/cutout/background"
	"github.com/chaos-io/cutout/export"
	"github.com/chaos-io/cutout/raster"
	"github.com/chaos-io/cutout/refine"
)

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// constantSegmenter returns a mask of the given size filled with v.
func constantSegmenter(w, h int, v float32) Segmenter {
	return SegmenterFunc(func(_ context.Context, _ *raster.PixelBuffer) (*raster.Mask, error) {
		m, err := raster.NewMask(w, h)
		if err != nil {
			return nil, err
		}
		for i := range m.Values {
			m.Values[i] = v
		}
		return m, nil
	})
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestRun_TransparentPNG(t *testing.T) {
	t.Parallel()

	var got []int
	opts := DefaultOptions()
	opts.Refinement = refine.Params{Sensitivity: 0.5}
	opts.Progress = func(p int) { got = append(got, p) }

	res, err := Run(context.Background(), solidImage(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255}), constantSegmenter(4, 4, 1), opts)
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.MIME)
	assert.Equal(t, 2, res.Width)
	assert.Equal(t, 2, res.Height)
	assert.False(t, res.Resized)
	assert.Equal(t, []int{10, 30, 50, 70, 85, 100}, got)

	img := decodePNG(t, res.Data)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, c)
		}
	}
}

func TestRun_SolidBackgroundUnderEmptyMask(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Background = background.Solid(color.NRGBA{R: 255, A: 255})
	res, err := Run(context.Background(), solidImage(3, 3, color.White), constantSegmenter(3, 3, 0), opts)
	require.NoError(t, err)

	img := decodePNG(t, res.Data)
	c := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, c)
}

func TestRun_DownscalesLargeSources(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MaxDimension = 10

	var seen image.Point
	seg := SegmenterFunc(func(_ context.Context, src *raster.PixelBuffer) (*raster.Mask, error) {
		seen = image.Pt(src.Width(), src.Height())
		return raster.NewMask(5, 3)
	})
	res, err := Run(context.Background(), solidImage(40, 20, color.Black), seg, opts)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(10, 5), seen)
	assert.True(t, res.Resized)
	assert.Equal(t, 10, res.Width)
	assert.Equal(t, 5, res.Height)
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := solidImage(2, 2, color.White)
	boom := errors.New("model offline")

	_, err := Run(ctx, src, nil, DefaultOptions())
	assert.ErrorIs(t, err, raster.ErrInvalidMask)

	_, err = Run(ctx, image.NewNRGBA(image.Rect(0, 0, 0, 0)), constantSegmenter(1, 1, 1), DefaultOptions())
	assert.ErrorIs(t, err, raster.ErrDimension)

	_, err = Run(ctx, src, SegmenterFunc(func(context.Context, *raster.PixelBuffer) (*raster.Mask, error) {
		return nil, boom
	}), DefaultOptions())
	assert.ErrorIs(t, err, boom)

	_, err = Run(ctx, src, SegmenterFunc(func(context.Context, *raster.PixelBuffer) (*raster.Mask, error) {
		return nil, nil
	}), DefaultOptions())
	assert.ErrorIs(t, err, raster.ErrInvalidMask)

	_, err = Run(ctx, src, SegmenterFunc(func(context.Context, *raster.PixelBuffer) (*raster.Mask, error) {
		return &raster.Mask{Width: 2, Height: 2, Values: []float32{1}}, nil
	}), DefaultOptions())
	assert.ErrorIs(t, err, raster.ErrInvalidMask)
}

func TestCutout_JPEGAlwaysOpaque(t *testing.T) {
	t.Parallel()

	src, err := raster.New(4, 4)
	require.NoError(t, err)
	mask, err := raster.NewMask(4, 4)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Format = export.JPEG
	res, err := Cutout(src, mask, opts)
	require.NoError(t, err)
	assert.Equal(t, "jpg", res.Ext)
	assert.Equal(t, "image/jpeg", res.MIME)

	img, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			assert.Equal(t, uint8(255), c.A, "alpha at %d,%d", x, y)
			// a fully transparent cutout flattens to the white canvas
			assert.InDelta(t, 255, int(c.R), 2, "red at %d,%d", x, y)
			assert.InDelta(t, 255, int(c.G), 2, "green at %d,%d", x, y)
			assert.InDelta(t, 255, int(c.B), 2, "blue at %d,%d", x, y)
		}
	}
}

func TestRunBatch_FailureDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: "a", Name: "a.png", Image: solidImage(2, 2, color.White)},
		{Name: "broken.png", Image: image.NewNRGBA(image.Rect(0, 0, 0, 0))},
		{ID: "c", Name: "c.png", Image: solidImage(3, 1, color.Black)},
	}

	var mu sync.Mutex
	done := map[string]bool{}
	opts := BatchOptions{
		Options:     DefaultOptions(),
		Concurrency: 2,
		OnProgress: func(id string, p int) {
			if p == ProgressDone {
				mu.Lock()
				done[id] = true
				mu.Unlock()
			}
		},
	}
	results := RunBatch(context.Background(), items, constantSegmenter(1, 1, 1), opts)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, StatusComplete, results[0].Status)
	assert.NoError(t, results[0].Err)

	assert.NotEmpty(t, results[1].ID)
	assert.Equal(t, StatusError, results[1].Status)
	assert.ErrorIs(t, results[1].Err, raster.ErrDimension)
	assert.Nil(t, results[1].Result)

	assert.Equal(t, StatusComplete, results[2].Status)
	assert.Equal(t, 3, results[2].Result.Width)

	assert.True(t, done["a"])
	assert.True(t, done["c"])
	assert.False(t, done[results[1].ID])
}

func TestRunBatch_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := RunBatch(ctx, []Item{{Image: solidImage(1, 1, color.White)}}, constantSegmenter(1, 1, 1), BatchOptions{Options: DefaultOptions()})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
