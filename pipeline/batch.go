package pipeline

import (
	"context"
	"image"
	"log/slog"

	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

// Item is one image of a batch.
type Item struct {
	ID    string
	Name  string
	Image image.Image
}

// Status of a batch item.
type Status string

const (
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// ItemResult carries either the result or the error of one item.
type ItemResult struct {
	ID     string
	Name   string
	Status Status
	Result *Result
	Err    error
}

// BatchOptions configures RunBatch.
type BatchOptions struct {
	Options
	// Concurrency bounds the number of images in flight; <= 0 means 1.
	Concurrency int
	// OnProgress receives per-item milestones. It is called from several
	// goroutines at once.
	OnProgress func(id string, percent int)
}

// RunBatch processes every item independently. A failing item never stops
// its siblings; results come back in input order.
func RunBatch(ctx context.Context, items []Item, seg Segmenter, opts BatchOptions) []ItemResult {
	results := make([]ItemResult, len(items))

	var g errgroup.Group
	g.SetLimit(max(1, opts.Concurrency))
	for i, item := range items {
		id := item.ID
		if id == "" {
			id = ksuid.New().String()
		}
		results[i] = ItemResult{ID: id, Name: item.Name}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Status, results[i].Err = StatusError, err
				return nil
			}

			itemOpts := opts.Options
			if opts.OnProgress != nil {
				itemOpts.Progress = func(p int) { opts.OnProgress(id, p) }
			}
			res, err := Run(ctx, item.Image, seg, itemOpts)
			if err != nil {
				slog.Warn("batch item failed", "id", id, "name", item.Name, "error", err)
				results[i].Status, results[i].Err = StatusError, err
				return nil
			}
			results[i].Status, results[i].Result = StatusComplete, res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
