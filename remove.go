package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/export"
	"github.com/chaos-io/cutout/pipeline"
	"github.com/chaos-io/cutout/segment"
	"github.com/chaos-io/cutout/util"
)

var removeCmd = &cobra.Command{
	Use:   "remove <image path or URL>",
	Short: "Cut out the foreground of one image",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	removeCmd.Flags().String("mask", "", "Grayscale mask image to use instead of the configured segmenter")
	removeCmd.Flags().String("segmenter-url", "", "Base URL of a remote segmentation service")
	removeCmd.Flags().Float64("sensitivity", 0.5, "Mask sensitivity (0-1)")
	removeCmd.Flags().Float64("edge-smoothing", 0.5, "Edge smoothing strength (0-1)")
	removeCmd.Flags().String("background", "", "Background kind (transparent, solid, gradient, image)")
	removeCmd.Flags().String("color1", "", "Solid color or gradient start, e.g. #FFFFFF")
	removeCmd.Flags().String("color2", "", "Gradient end color")
	removeCmd.Flags().String("background-image", "", "Background image path or URL")
	removeCmd.Flags().StringP("format", "f", "", "Output format (png, webp, jpeg)")
	removeCmd.Flags().StringP("output", "o", "", "Output file (default <name>-processed.<ext> next to the input)")
	removeCmd.Flags().Int("max-dimension", pipeline.DefaultMaxDimension, "Downscale larger images before segmentation; 0 disables")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRemoveFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := cfg.PipelineOptions(ctx)
	if err != nil {
		return err
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		opts.Progress = func(p int) {
			fmt.Fprintf(os.Stderr, "\rprocessing... %3d%%", p)
			if p == pipeline.ProgressDone {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	seg, err := removeSegmenter(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	input := args[0]
	img, err := util.LoadImage(ctx, input)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	result, err := pipeline.Run(ctx, img, seg, opts)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		dir := "."
		if !util.IsURL(input) {
			dir = filepath.Dir(input)
		}
		output = filepath.Join(dir, export.Filename(input, result.Format))
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("%s (%dx%d, %s)\n", output, result.Width, result.Height, result.MIME)
	return nil
}

// applyRemoveFlags overrides the config with the flags that were set explicitly.
func applyRemoveFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("sensitivity") {
		cfg.Refinement.Sensitivity, _ = flags.GetFloat64("sensitivity")
	}
	if flags.Changed("edge-smoothing") {
		cfg.Refinement.EdgeSmoothing, _ = flags.GetFloat64("edge-smoothing")
	}
	if flags.Changed("background") {
		cfg.Background.Type, _ = flags.GetString("background")
	}
	if flags.Changed("color1") {
		cfg.Background.Color1, _ = flags.GetString("color1")
	}
	if flags.Changed("color2") {
		cfg.Background.Color2, _ = flags.GetString("color2")
	}
	if flags.Changed("background-image") {
		cfg.Background.Image, _ = flags.GetString("background-image")
		if !flags.Changed("background") {
			cfg.Background.Type = "image"
		}
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("max-dimension") {
		cfg.MaxDimension, _ = flags.GetInt("max-dimension")
	}
	if flags.Changed("segmenter-url") {
		cfg.Segmenter.Kind = "remote"
		cfg.Segmenter.URL, _ = flags.GetString("segmenter-url")
	}
}

func removeSegmenter(ctx context.Context, cmd *cobra.Command, cfg config.Config) (pipeline.Segmenter, error) {
	if mask, _ := cmd.Flags().GetString("mask"); mask != "" {
		return segment.LoadMask(ctx, mask)
	}
	return cfg.NewSegmenter()
}
