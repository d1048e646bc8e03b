package background

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/chaos-io/cutout/raster"
)

// Kind selects what is painted beneath a cutout.
type Kind int

const (
	KindTransparent Kind = iota
	KindSolid
	KindGradient
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindTransparent:
		return "transparent"
	case KindSolid:
		return "solid"
	case KindGradient:
		return "gradient"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Defaults used when a solid or gradient background arrives without colours.
const (
	DefaultSolid     = "#FFFFFF"
	DefaultGradient1 = "#667eea"
	DefaultGradient2 = "#764ba2"
)

// Spec describes a background. Only the fields relevant to Kind are read;
// colours are treated as opaque.
type Spec struct {
	Kind   Kind
	Color1 color.NRGBA
	Color2 color.NRGBA
	Image  *raster.PixelBuffer
}

func Transparent() Spec { return Spec{Kind: KindTransparent} }

func Solid(c color.NRGBA) Spec { return Spec{Kind: KindSolid, Color1: c} }

// Gradient runs from c1 at the top-left corner to c2 at the bottom-right.
func Gradient(c1, c2 color.NRGBA) Spec {
	return Spec{Kind: KindGradient, Color1: c1, Color2: c2}
}

// Image stretches img over the whole canvas.
func Image(img *raster.PixelBuffer) Spec { return Spec{Kind: KindImage, Image: img} }

// ParseKind accepts the names produced by Kind.String; empty means transparent.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transparent", "none":
		return KindTransparent, nil
	case "solid", "color":
		return KindSolid, nil
	case "gradient":
		return KindGradient, nil
	case "image":
		return KindImage, nil
	}
	return 0, fmt.Errorf("unknown background type %q", s)
}

// ParseSpec builds a Spec from the configuration surface: a type name, up to
// two hex colours and an optional background image.
func ParseSpec(kind, color1, color2 string, img *raster.PixelBuffer) (Spec, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Spec{}, err
	}
	switch k {
	case KindSolid:
		c, err := ParseColor(orDefault(color1, DefaultSolid))
		if err != nil {
			return Spec{}, err
		}
		return Solid(c), nil
	case KindGradient:
		c1, err := ParseColor(orDefault(color1, DefaultGradient1))
		if err != nil {
			return Spec{}, err
		}
		c2, err := ParseColor(orDefault(color2, DefaultGradient2))
		if err != nil {
			return Spec{}, err
		}
		return Gradient(c1, c2), nil
	case KindImage:
		if img == nil {
			return Spec{}, fmt.Errorf("%w: image background without image", raster.ErrDimension)
		}
		return Image(img), nil
	}
	return Transparent(), nil
}

// ParseColor reads #rgb or #rrggbb notation.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) == 4 {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
