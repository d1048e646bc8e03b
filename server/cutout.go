package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/chaos-io/cutout/background"
	"github.com/chaos-io/cutout/export"
	"github.com/chaos-io/cutout/pipeline"
	"github.com/chaos-io/cutout/raster"
	"github.com/chaos-io/cutout/util"
)

type cutoutForm struct {
	Sensitivity   *float64 `form:"sensitivity" binding:"omitempty,min=0,max=1"`
	EdgeSmoothing *float64 `form:"edgeSmoothing" binding:"omitempty,min=0,max=1"`
	Background    string   `form:"background" binding:"omitempty,oneof=transparent solid gradient image"`
	Color1        string   `form:"color1"`
	Color2        string   `form:"color2"`
	Format        string   `form:"format" binding:"omitempty,oneof=png webp jpg jpeg"`
}

// handleCutout accepts a multipart form:
//
//	image            source photo (required)
//	mask             grayscale mask; the configured segmenter runs when absent
//	sensitivity      0..1
//	edgeSmoothing    0..1
//	background       transparent|solid|gradient|image
//	color1, color2   hex colours
//	backgroundImage  image stretched beneath the cutout
//	format           png|webp|jpg
func (s *Server) handleCutout(c *gin.Context) {
	var form cutoutForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	src, name, err := formImage(c, "image")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if src == nil {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("missing image file"))
		return
	}

	opts, err := s.requestOptions(c, form)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	maskImg, _, err := formImage(c, "mask")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	var res *pipeline.Result
	switch {
	case maskImg != nil:
		res, err = cutoutWithMask(src, maskImg, opts)
	case s.seg != nil:
		res, err = pipeline.Run(c.Request.Context(), src, s.seg, opts)
	default:
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("no mask uploaded and no segmenter configured"))
		return
	}
	if err != nil {
		abortWithError(c, statusFor(err), err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(name, res.Format)))
	c.Header("X-Image-Width", strconv.Itoa(res.Width))
	c.Header("X-Image-Height", strconv.Itoa(res.Height))
	c.Data(http.StatusOK, res.MIME, res.Data)
}

// cutoutWithMask applies an uploaded mask at the source's full resolution;
// no model runs, so nothing is downscaled.
func cutoutWithMask(src, maskImg image.Image, opts pipeline.Options) (*pipeline.Result, error) {
	mask, err := raster.MaskFromImage(maskImg)
	if err != nil {
		return nil, err
	}
	buf, err := raster.FromImage(src)
	if err != nil {
		return nil, err
	}
	return pipeline.Cutout(buf, mask, opts)
}

func (s *Server) requestOptions(c *gin.Context, form cutoutForm) (pipeline.Options, error) {
	opts := s.opts
	if form.Sensitivity != nil {
		opts.Refinement.Sensitivity = *form.Sensitivity
	}
	if form.EdgeSmoothing != nil {
		opts.Refinement.EdgeSmoothing = *form.EdgeSmoothing
	}
	if form.Format != "" {
		f, err := export.ParseFormat(form.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}

	if form.Background == "" {
		return opts, nil
	}
	var bgBuf *raster.PixelBuffer
	if form.Background == background.KindImage.String() {
		bgImg, _, err := formImage(c, "backgroundImage")
		if err != nil {
			return opts, err
		}
		switch {
		case bgImg != nil:
			if bgBuf, err = raster.FromImage(bgImg); err != nil {
				return opts, err
			}
		case s.opts.Background.Kind == background.KindImage:
			bgBuf = s.opts.Background.Image
		}
	}
	spec, err := background.ParseSpec(form.Background, form.Color1, form.Color2, bgBuf)
	if err != nil {
		return opts, err
	}
	opts.Background = spec
	return opts, nil
}

// formImage decodes an optional uploaded image. A missing field yields a nil image.
func formImage(c *gin.Context, field string) (image.Image, string, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}
	data, err := readUpload(fh)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}

	mt := mimetype.Detect(data)
	if !mt.Is("image/png") && !mt.Is("image/jpeg") && !mt.Is("image/webp") &&
		!mt.Is("image/gif") && !mt.Is("image/bmp") && !mt.Is("image/tiff") {
		return nil, "", fmt.Errorf("%s: unsupported content type %s", field, mt.String())
	}
	img, _, err := util.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", field, err)
	}
	return img, fh.Filename, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(f)
}
