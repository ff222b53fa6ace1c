// Package roster holds the client's view of the server-side video list.
// The list is replaced wholesale on every successful refresh and never
// mutated in place.
package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

// Lister fetches the full roster.
type Lister interface {
	List(ctx context.Context) ([]media.VideoRecord, error)
}

type Coordinator struct {
	lister   Lister
	gate     identity.Gate
	reporter notify.Reporter
	logger   *slog.Logger

	current atomic.Pointer[[]media.VideoRecord]
	loaded  atomic.Bool

	mu      sync.Mutex
	subs    map[int]func([]media.VideoRecord)
	nextSub int

	inflight sync.WaitGroup
}

func NewCoordinator(lister Lister, gate identity.Gate, reporter notify.Reporter, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		lister:   lister,
		gate:     gate,
		reporter: reporter,
		logger:   logging.WithComponent(logger, "roster"),
		subs:     make(map[int]func([]media.VideoRecord)),
	}
	empty := []media.VideoRecord{}
	c.current.Store(&empty)
	return c
}

// Refresh fetches the roster and replaces the snapshot. On failure the
// error is reported and the previous snapshot is kept.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if err := c.gate.Ensure(ctx); err != nil {
		err = fmt.Errorf("identity: %w", err)
		c.fail(err)
		return err
	}

	videos, err := c.lister.List(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	c.current.Store(&videos)
	c.loaded.Store(true)
	c.logger.Debug("roster replaced", "count", len(videos))

	c.mu.Lock()
	subs := make([]func([]media.VideoRecord), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(videos)
	}
	return nil
}

func (c *Coordinator) fail(err error) {
	c.logger.Warn("roster refresh failed", "error", err)
	c.reporter.Report(err.Error(), notify.Error)
}

// Signal returns the fire-and-forget refresh trigger handed to components
// that mutate server state. Each call starts an independent refresh; the
// last one to complete determines the snapshot.
func (c *Coordinator) Signal() func() {
	return func() {
		c.inflight.Add(1)
		go func() {
			defer c.inflight.Done()
			_ = c.Refresh(context.Background())
		}()
	}
}

// Wait blocks until every refresh started through Signal has completed.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// Snapshot returns the current roster. The slice is shared and must not be
// modified.
func (c *Coordinator) Snapshot() []media.VideoRecord {
	return *c.current.Load()
}

// Loaded reports whether at least one refresh succeeded.
func (c *Coordinator) Loaded() bool {
	return c.loaded.Load()
}

func (c *Coordinator) Find(id int64) (media.VideoRecord, bool) {
	for _, v := range c.Snapshot() {
		if v.ID == id {
			return v, true
		}
	}
	return media.VideoRecord{}, false
}

// Subscribe registers fn to receive each new roster. The returned function
// removes the subscription.
func (c *Coordinator) Subscribe(fn func([]media.VideoRecord)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
