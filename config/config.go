// Package config loads the YAML settings shared by the serve and watch commands.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaos-io/cutout/background"
	"github.com/chaos-io/cutout/export"
	"github.com/chaos-io/cutout/pipeline"
	"github.com/chaos-io/cutout/refine"
)

type Config struct {
	Refinement   refine.Params `yaml:"refinement"`
	MaxDimension int           `yaml:"maxDimension"`
	Background   Background    `yaml:"background"`
	Format       string        `yaml:"format"`
	Segmenter    Segmenter     `yaml:"segmenter"`
	Server       Server        `yaml:"server"`
	Watch        Watch         `yaml:"watch"`
}

type Background struct {
	Type   string `yaml:"type"`
	Color1 string `yaml:"color1"`
	Color2 string `yaml:"color2"`
	Image  string `yaml:"image"`
}

// Segmenter selects the mask source: "remote" calls URL, "alpha" reuses the
// input's alpha channel.
type Segmenter struct {
	Kind    string        `yaml:"kind"`
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type Server struct {
	Addr string `yaml:"addr"`
	// MaxUploadBytes bounds multipart request bodies.
	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
}

type Watch struct {
	Input       string `yaml:"input"`
	Output      string `yaml:"output"`
	Schedule    string `yaml:"schedule"`
	Concurrency int    `yaml:"concurrency"`
}

func Default() Config {
	return Config{
		Refinement:   refine.DefaultParams(),
		MaxDimension: pipeline.DefaultMaxDimension,
		Background:   Background{Type: background.KindTransparent.String()},
		Format:       export.PNG.String(),
		Segmenter:    Segmenter{Kind: "alpha", Timeout: 60 * time.Second},
		Server:       Server{Addr: ":8080", MaxUploadBytes: 32 << 20},
		Watch: Watch{
			Input:       "input",
			Output:      "output",
			Schedule:    "@every 1m",
			Concurrency: 4,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := export.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := background.ParseKind(c.Background.Type); err != nil {
		return err
	}
	switch c.Segmenter.Kind {
	case "alpha":
	case "remote":
		if c.Segmenter.URL == "" {
			return fmt.Errorf("segmenter url is required for remote segmentation")
		}
	default:
		return fmt.Errorf("unknown segmenter kind %q", c.Segmenter.Kind)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("maxDimension must not be negative")
	}
	return nil
}
