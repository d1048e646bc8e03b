package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaos-io/cutout/pipeline"
	"github.com/chaos-io/cutout/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically cut out new images dropped into a folder",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringP("input", "i", "", "Folder to scan (overrides watch.input)")
	watchCmd.Flags().StringP("output", "o", "", "Folder for results (overrides watch.output)")
	watchCmd.Flags().String("schedule", "", "Cron schedule (overrides watch.schedule)")
	watchCmd.Flags().Bool("once", false, "Run a single pass and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("input"); v != "" {
		cfg.Watch.Input = v
	}
	if v, _ := flags.GetString("output"); v != "" {
		cfg.Watch.Output = v
	}
	if v, _ := flags.GetString("schedule"); v != "" {
		cfg.Watch.Schedule = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := cfg.PipelineOptions(ctx)
	if err != nil {
		return err
	}
	seg, err := cfg.NewSegmenter()
	if err != nil {
		return err
	}
	job := watch.NewJob(cfg.Watch.Input, cfg.Watch.Output, seg, pipeline.BatchOptions{
		Options:     opts,
		Concurrency: cfg.Watch.Concurrency,
	})

	if once, _ := flags.GetBool("once"); once {
		report, err := job.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("processed %d, failed %d, skipped %d\n", report.Processed, report.Failed, report.Skipped)
		return nil
	}

	w, err := watch.NewWatcher(ctx, cfg.Watch.Schedule, job)
	if err != nil {
		return err
	}
	slog.Info("watching", "input", cfg.Watch.Input, "output", cfg.Watch.Output, "schedule", cfg.Watch.Schedule)
	w.Start(ctx)
	return nil
}
