package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaos-io/cutout/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cutout pipeline over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
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
	return server.New(seg, opts, cfg.Server.MaxUploadBytes).Run(ctx, cfg.Server.Addr)
}
