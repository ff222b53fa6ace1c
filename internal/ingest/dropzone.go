package ingest

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

// DropZone is the drag-and-drop and manual-pick entry point of the
// pipeline. It only tracks whether something is being dragged over it.
type DropZone struct {
	pipeline *Pipeline
	reporter notify.Reporter
	dragging atomic.Bool
}

func NewDropZone(pipeline *Pipeline, reporter notify.Reporter) *DropZone {
	return &DropZone{pipeline: pipeline, reporter: reporter}
}

func (z *DropZone) DragOver() { z.dragging.Store(true) }

func (z *DropZone) DragLeave() { z.dragging.Store(false) }

func (z *DropZone) Dragging() bool { return z.dragging.Load() }

// Drop ends the drag and submits the dropped files as one batch.
func (z *DropZone) Drop(ctx context.Context, paths []string) *Submission {
	z.dragging.Store(false)
	return z.Pick(ctx, paths)
}

// Pick submits manually chosen files as one batch. Paths that cannot be
// read are reported and appear as failed outcomes. The batch limit counts
// every path, readable or not.
func (z *DropZone) Pick(ctx context.Context, paths []string) *Submission {
	if len(paths) > z.pipeline.policy.MaxBatch {
		batch := make([]media.Candidate, len(paths))
		for i, p := range paths {
			batch[i] = media.Candidate{Name: filepath.Base(p)}
		}
		return z.pipeline.submit(ctx, batch, nil)
	}

	var (
		batch  []media.Candidate
		failed []Outcome
	)
	for _, p := range paths {
		c, err := media.CandidateFromPath(p)
		if err != nil {
			z.reporter.Report(err.Error(), notify.Error)
			failed = append(failed, Outcome{Name: p, Message: err.Error(), Err: err})
			continue
		}
		batch = append(batch, c)
	}
	return z.pipeline.submit(ctx, batch, failed)
}
