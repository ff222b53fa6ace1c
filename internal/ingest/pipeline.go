// Package ingest validates batches of local files and uploads the accepted
// ones concurrently. A submission returns as soon as the transfers have been
// started; each transfer settles on its own.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

// Uploader sends one file to the backend and returns its message.
type Uploader interface {
	Upload(ctx context.Context, filename, mediaType string, body io.Reader) (string, error)
}

type Config struct {
	Uploader Uploader
	Gate     identity.Gate
	// Policy defaults to media.DefaultPolicy when MaxBatch is zero.
	Policy   media.Policy
	Reporter notify.Reporter
	// Refresh is fired after every successful upload.
	Refresh func()
	Logger  *slog.Logger
}

type Pipeline struct {
	uploader Uploader
	gate     identity.Gate
	policy   media.Policy
	reporter notify.Reporter
	refresh  func()
	logger   *slog.Logger
}

func NewPipeline(cfg Config) *Pipeline {
	policy := cfg.Policy
	if policy.MaxBatch == 0 {
		policy = media.DefaultPolicy()
	}
	refresh := cfg.Refresh
	if refresh == nil {
		refresh = func() {}
	}
	return &Pipeline{
		uploader: cfg.Uploader,
		gate:     cfg.Gate,
		policy:   policy,
		reporter: cfg.Reporter,
		refresh:  refresh,
		logger:   logging.WithComponent(cfg.Logger, "ingest"),
	}
}

// Outcome is the settled result of one transfer.
type Outcome struct {
	Name    string
	Message string
	Err     error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Submission tracks one batch.
type Submission struct {
	decisions []media.Decision
	accepted  []media.Candidate
	outcomes  chan Outcome
}

// Decisions are aligned index-for-index with the submitted batch.
func (s *Submission) Decisions() []media.Decision { return s.decisions }

func (s *Submission) Accepted() []media.Candidate { return s.accepted }

// Outcomes yields one Outcome per transfer in completion order and is
// closed once all of them have settled.
func (s *Submission) Outcomes() <-chan Outcome { return s.outcomes }

// Wait drains Outcomes.
func (s *Submission) Wait() []Outcome {
	var out []Outcome
	for o := range s.outcomes {
		out = append(out, o)
	}
	return out
}

// Submit validates the batch, reports every rejection and starts one
// transfer per accepted candidate.
func (p *Pipeline) Submit(ctx context.Context, batch []media.Candidate) *Submission {
	return p.submit(ctx, batch, nil)
}

func (p *Pipeline) submit(ctx context.Context, batch []media.Candidate, failed []Outcome) *Submission {
	descriptors := make([]media.Descriptor, len(batch))
	for i, c := range batch {
		descriptors[i] = c.Descriptor()
	}
	decisions := p.policy.Validate(descriptors)

	sub := &Submission{decisions: decisions}
	reportedBatch := false
	for i, d := range decisions {
		if d.Accepted {
			sub.accepted = append(sub.accepted, batch[i])
			continue
		}
		if d.Reason == media.ReasonTooManyFiles {
			if !reportedBatch {
				p.reporter.Report(d.Message(), notify.Warning)
				reportedBatch = true
			}
			continue
		}
		p.reporter.Report(d.Message(), notify.Warning)
	}

	p.logger.Info("batch submitted", "total", len(batch), "accepted", len(sub.accepted))

	sub.outcomes = make(chan Outcome, len(sub.accepted)+len(failed))
	for _, o := range failed {
		sub.outcomes <- o
	}

	var wg sync.WaitGroup
	for _, c := range sub.accepted {
		wg.Add(1)
		go func(c media.Candidate) {
			defer wg.Done()
			sub.outcomes <- p.transfer(ctx, c)
		}(c)
	}
	go func() {
		wg.Wait()
		close(sub.outcomes)
	}()

	return sub
}

func (p *Pipeline) transfer(ctx context.Context, c media.Candidate) Outcome {
	logger := p.logger.With("file", c.Name)
	logger.Debug("transfer starting", "candidate", c.String())

	if err := p.gate.Ensure(ctx); err != nil {
		logger.Warn("identity gate failed, uploading anyway", "error", err)
	}

	pending := p.reporter.Begin("Uploading " + c.Name)

	rc, err := c.Open()
	if err != nil {
		err = fmt.Errorf("%s: %w", c.Name, err)
		pending.Resolve(err.Error(), notify.Error)
		return Outcome{Name: c.Name, Message: err.Error(), Err: err}
	}
	defer rc.Close()

	msg, err := p.uploader.Upload(ctx, c.Name, c.MediaType, rc)
	if err != nil {
		logger.Warn("upload failed", "error", err)
		pending.Resolve(err.Error(), notify.Error)
		return Outcome{Name: c.Name, Message: err.Error(), Err: err}
	}

	if msg == "" {
		msg = c.Name + " uploaded"
	}
	logger.Info("upload finished")
	pending.Resolve(msg, notify.Success)
	p.refresh()
	return Outcome{Name: c.Name, Message: msg}
}
