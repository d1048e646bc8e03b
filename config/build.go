package config

import (
	"context"
	"fmt"

	"github.com/chaos-io/cutout/background"
	"github.com/chaos-io/cutout/export"
	"github.com/chaos-io/cutout/pipeline"
	"github.com/chaos-io/cutout/raster"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/util"
)

// PipelineOptions resolves the configured format and background. An image
// background is loaded once here and shared read-only between runs.
func (c Config) PipelineOptions(ctx context.Context) (pipeline.Options, error) {
	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return pipeline.Options{}, err
	}

	var bgImage *raster.PixelBuffer
	if c.Background.Image != "" {
		img, err := util.LoadImage(ctx, c.Background.Image)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("load background image: %w", err)
		}
		if bgImage, err = raster.FromImage(img); err != nil {
			return pipeline.Options{}, err
		}
	}
	spec, err := background.ParseSpec(c.Background.Type, c.Background.Color1, c.Background.Color2, bgImage)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Refinement:   c.Refinement.Clamped(),
		Background:   spec,
		Format:       format,
		MaxDimension: c.MaxDimension,
	}, nil
}

// NewSegmenter builds the configured mask source.
func (c Config) NewSegmenter() (pipeline.Segmenter, error) {
	switch c.Segmenter.Kind {
	case "alpha":
		return segment.NewAlphaSegmenter(), nil
	case "remote":
		opts := []segment.RemoteOption{}
		if c.Segmenter.Model != "" {
			opts = append(opts, segment.WithModel(c.Segmenter.Model))
		}
		if c.Segmenter.Timeout > 0 {
			opts = append(opts, segment.WithTimeout(c.Segmenter.Timeout))
		}
		return segment.NewRemoteSegmenter(c.Segmenter.URL, opts...), nil
	}
	return nil, fmt.Errorf("unknown segmenter kind %q", c.Segmenter.Kind)
}
