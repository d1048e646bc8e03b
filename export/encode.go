// Package export serializes finished pixel buffers as PNG, WEBP or JPEG.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"

	"github.com/chaos-io/cutout/background"
	"github.com/chaos-io/cutout/raster"
)

const (
	WEBPQuality = 95
	JPEGQuality = 100
)

// Result is an encoded image tagged with its media type and extension.
type Result struct {
	Format Format
	MIME   string
	Ext    string
	Data   []byte
}

// Encode serializes buf. PNG and WEBP keep the alpha channel; JPEG output is
// always flattened onto white first, whatever background was composited
// before. buf is not modified.
func Encode(buf *raster.PixelBuffer, f Format) (*Result, error) {
	if buf == nil || len(buf.Pix()) == 0 || buf.Width() <= 0 || buf.Height() <= 0 {
		return nil, fmt.Errorf("%w: empty buffer", raster.ErrEncode)
	}

	var out bytes.Buffer
	switch f {
	case PNG:
		if err := png.Encode(&out, buf.NRGBA()); err != nil {
			return nil, fmt.Errorf("%w: png: %v", raster.ErrEncode, err)
		}
	case WEBP:
		// libwebp reads straight alpha, so the samples are handed over as-is
		// instead of letting the encoder premultiply an NRGBA image.
		rgba := &image.RGBA{Pix: buf.Pix(), Stride: buf.Stride(), Rect: image.Rect(0, 0, buf.Width(), buf.Height())}
		if err := webp.Encode(&out, rgba, &webp.Options{Lossless: false, Quality: WEBPQuality}); err != nil {
			return nil, fmt.Errorf("%w: webp: %v", raster.ErrEncode, err)
		}
	case JPEG:
		flat, err := background.Composite(buf, background.Solid(color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
		if err != nil {
			return nil, fmt.Errorf("%w: flatten: %v", raster.ErrContext, err)
		}
		if err := jpeg.Encode(&out, flat.NRGBA(), &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", raster.ErrEncode, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %v", raster.ErrEncode, f)
	}

	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: %v encoder produced no output", raster.ErrEncode, f)
	}
	return &Result{
		Format: f,
		MIME:   f.MIME(),
		Ext:    f.Ext(),
		Data:   out.Bytes(),
	}, nil
}
