package util

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxDownloadSize caps remote images at 32 MiB.
const maxDownloadSize = 32 << 20

// IsURL reports whether path points at an http(s) resource.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// LoadImage opens a local file or downloads a URL.
func LoadImage(ctx context.Context, path string) (image.Image, error) {
	if IsURL(path) {
		return DownloadImage(ctx, path)
	}
	return OpenImage(path)
}

// DownloadImage fetches and decodes a remote image of at most 32 MiB.
func DownloadImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status code %d", url, resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxDownloadSize))
	return img, err
}

// OpenImage decodes a local image file.
func OpenImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	img, _, err := image.Decode(file)
	return img, err
}

// DecodeImage decodes any registered format from r.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// Trace logs the time elapsed between the call and the returned func.
//
//	defer util.Trace("batch")()
func Trace(msg string) func() {
	start := time.Now()
	slog.Debug("enter", "trace", msg)
	return func() {
		slog.Info("exit", "trace", msg, "elapsed", time.Since(start))
	}
}
