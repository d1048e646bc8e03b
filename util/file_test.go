package util

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("http://example.com/a.png"))
	assert.True(t, IsURL("https://example.com/a.png"))
	assert.False(t, IsURL("ftp://example.com/a.png"))
	assert.False(t, IsURL("input/a.png"))
}

func TestLoadImage_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t), 0o644))

	img, err := LoadImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	_, err = LoadImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestLoadImage_URL(t *testing.T) {
	data := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer server.Close()

	img, err := LoadImage(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	_, err = LoadImage(context.Background(), server.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 404")
}

func TestDecodeImage(t *testing.T) {
	_, format, err := DecodeImage(bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	_, _, err = DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
