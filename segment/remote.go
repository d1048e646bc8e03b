package segment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/chaos-io/cutout/raster"
	"github.com/chaos-io/cutout/util"
	nhttp "github.com/chaos-io/cutout/util/http"
)

const (
	// DefaultModel is sent along with every request; servers may ignore it.
	DefaultModel   = "briaai/RMBG-1.4"
	segmentPath    = "api/segment"
	defaultTimeout = 60 * time.Second
)

// ErrSegmenter reports a failure of the remote model service.
var ErrSegmenter = errors.New("segmenter unavailable")

// RemoteSegmenter asks an HTTP model service for the mask.
//
//	curl -X POST "$BASE_URL/api/segment" \
//	  -F "image=@my_image.png" \
//	  -F "model=briaai/RMBG-1.4"
//
//	{"mask": "data:image/png;base64,iVBORw0KGgo..."}
type RemoteSegmenter struct {
	baseURL string
	model   string
	timeout time.Duration
	cli     nhttp.IClient
}

type RemoteOption func(*RemoteSegmenter)

func WithModel(model string) RemoteOption {
	return func(r *RemoteSegmenter) { r.model = model }
}

func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteSegmenter) { r.timeout = d }
}

func WithClient(cli nhttp.IClient) RemoteOption {
	return func(r *RemoteSegmenter) { r.cli = cli }
}

func NewRemoteSegmenter(baseURL string, opts ...RemoteOption) *RemoteSegmenter {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	r := &RemoteSegmenter{
		baseURL: baseURL,
		model:   DefaultModel,
		timeout: defaultTimeout,
		cli:     nhttp.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type segmentResp struct {
	Mask string `json:"mask"`
}

func (r *RemoteSegmenter) Segment(ctx context.Context, src *raster.PixelBuffer) (*raster.Mask, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: missing source image", raster.ErrDimension)
	}

	body, contentType, err := r.buildForm(src)
	if err != nil {
		return nil, err
	}

	resp := &segmentResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: r.baseURL + segmentPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": contentType},
		Body:       body,
		Response:   resp,
		Timeout:    r.timeout,
	}
	defer util.Trace("remote segment")()
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmenter, err)
	}
	slog.Debug("get the segment response", "model", r.model, "bytes", len(resp.Mask))

	return decodeMask(resp.Mask)
}

// buildForm encodes src as PNG inside a multipart form.
func (r *RemoteSegmenter) buildForm(src *raster.PixelBuffer) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, src.NRGBA()); err != nil {
		return nil, "", fmt.Errorf("%w: png: %v", raster.ErrEncode, err)
	}
	_ = writer.WriteField("model", r.model)
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// decodeMask accepts raw base64 or a data URL holding any registered image format.
func decodeMask(encoded string) (*raster.Mask, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty mask in response", raster.ErrInvalidMask)
	}
	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", raster.ErrInvalidMask, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", raster.ErrInvalidMask, err)
	}
	return raster.MaskFromImage(img)
}
