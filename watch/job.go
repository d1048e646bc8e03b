// Package watch periodically cuts out every new image dropped into a folder.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chaos-io/cutout/export"
	"github.com/chaos-io/cutout/pipeline"
	"github.com/chaos-io/cutout/util"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".webp": true,
	".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Job processes the images of Input that have no counterpart in Output yet.
type Job struct {
	input  string
	output string
	seg    pipeline.Segmenter
	opts   pipeline.BatchOptions

	mu     sync.Mutex
	failed map[string]time.Time // path -> mod time of the failing version
}

func NewJob(input, output string, seg pipeline.Segmenter, opts pipeline.BatchOptions) *Job {
	return &Job{
		input:  input,
		output: output,
		seg:    seg,
		opts:   opts,
		failed: map[string]time.Time{},
	}
}

// Report summarises one pass.
type Report struct {
	Processed int
	Failed    int
	Skipped   int
}

// Run performs one pass over the input folder. Files that failed are not
// retried until they change. When two inputs map to the same output name
// (dog.png and dog.tiff) the first in name order wins and the others fail.
func (j *Job) Run(ctx context.Context) (Report, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	defer util.Trace("watch pass " + j.input)()

	var report Report
	if err := os.MkdirAll(j.output, os.ModePerm); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}
	entries, err := os.ReadDir(j.input)
	if err != nil {
		return report, fmt.Errorf("read input dir: %w", err)
	}

	var items []pipeline.Item
	modTimes := map[string]time.Time{}
	claimed := map[string]string{} // output path -> input that owns it
	for _, e := range entries {
		if e.IsDir() || !isInput(e.Name()) {
			continue
		}
		path := filepath.Join(j.input, e.Name())
		info, err := e.Info()
		if err != nil {
			continue
		}

		out := j.outputPath(e.Name())
		owner, clash := claimed[out]
		if !clash {
			claimed[out] = path
			if j.done(e.Name()) {
				report.Skipped++
				continue
			}
		}
		if t, ok := j.failed[path]; ok && t.Equal(info.ModTime()) {
			report.Skipped++
			continue
		}
		if clash {
			slog.Warn("skip image with clashing output name", "path", path, "owner", owner, "output", out)
			j.failed[path] = info.ModTime()
			report.Failed++
			continue
		}

		img, err := util.OpenImage(path)
		if err != nil {
			slog.Warn("skip undecodable image", "path", path, "error", err)
			j.failed[path] = info.ModTime()
			report.Failed++
			continue
		}
		modTimes[path] = info.ModTime()
		items = append(items, pipeline.Item{Name: path, Image: img})
	}
	if len(items) == 0 {
		return report, nil
	}

	for _, r := range pipeline.RunBatch(ctx, items, j.seg, j.opts) {
		if r.Err == nil {
			r.Err = j.write(r)
		}
		if r.Err != nil {
			slog.Error("cutout failed", "id", r.ID, "path", r.Name, "error", r.Err)
			j.failed[r.Name] = modTimes[r.Name]
			report.Failed++
			continue
		}
		delete(j.failed, r.Name)
		report.Processed++
	}
	slog.Info("watch pass finished", "processed", report.Processed, "failed", report.Failed, "skipped", report.Skipped)
	return report, nil
}

// isInput reports whether name is an image this job should cut out. Files
// carrying the output suffix are results, so an output folder that equals
// the input folder is never fed back into the pipeline.
func isInput(name string) bool {
	ext := filepath.Ext(name)
	if !imageExts[strings.ToLower(ext)] {
		return false
	}
	return !strings.HasSuffix(strings.TrimSuffix(name, ext), export.ProcessedSuffix)
}

func (j *Job) outputPath(name string) string {
	return filepath.Join(j.output, export.Filename(name, j.opts.Format))
}

func (j *Job) done(name string) bool {
	_, err := os.Stat(j.outputPath(name))
	return err == nil
}

// write stores a result via a temporary file so a crash never leaves a
// truncated output that would be mistaken for a finished one.
func (j *Job) write(r pipeline.ItemResult) error {
	dst := j.outputPath(r.Name)
	tmp := dst + "." + r.ID + ".tmp"
	if err := os.WriteFile(tmp, r.Result.Data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
