package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output container.
type Format int

const (
	PNG Format = iota
	WEBP
	JPEG
)

var formats = [...]struct {
	name string
	mime string
	ext  string
}{
	PNG:  {"png", "image/png", "png"},
	WEBP: {"webp", "image/webp", "webp"},
	JPEG: {"jpeg", "image/jpeg", "jpg"},
}

func (f Format) valid() bool { return f >= PNG && f <= JPEG }

func (f Format) String() string {
	if !f.valid() {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formats[f].name
}

// MIME returns the media type written by Encode.
func (f Format) MIME() string {
	if !f.valid() {
		return ""
	}
	return formats[f].mime
}

// Ext returns the suggested file extension without a dot.
func (f Format) Ext() string {
	if !f.valid() {
		return ""
	}
	return formats[f].ext
}

// ParseFormat accepts format names, extensions and media types.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png", "image/png":
		return PNG, nil
	case "webp", "image/webp":
		return WEBP, nil
	case "jpg", "jpeg", "image/jpeg":
		return JPEG, nil
	}
	return 0, fmt.Errorf("unsupported export format %q", s)
}

// ProcessedSuffix is appended to the source stem by Filename.
const ProcessedSuffix = "-processed"

// Filename derives the download name for a processed image, e.g.
// "photos/cat.jpeg" -> "cat-processed.png".
func Filename(source string, f Format) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "image"
	}
	return base + ProcessedSuffix + "." + f.Ext()
}
