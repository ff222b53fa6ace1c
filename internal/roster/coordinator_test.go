package roster

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

type fakeLister struct {
	mu     sync.Mutex
	videos []media.VideoRecord
	err    error
	calls  atomic.Int32
}

func (f *fakeLister) List(ctx context.Context) ([]media.VideoRecord, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]media.VideoRecord, len(f.videos))
	copy(out, f.videos)
	return out, nil
}

func (f *fakeLister) set(videos []media.VideoRecord, err error) {
	f.mu.Lock()
	f.videos, f.err = videos, err
	f.mu.Unlock()
}

var okGate = identity.GateFunc(func(context.Context) error { return nil })

func TestRefresh_ReplacesSnapshot(t *testing.T) {
	lister := &fakeLister{videos: []media.VideoRecord{{ID: 1}, {ID: 2}}}
	c := NewCoordinator(lister, okGate, notify.NewMemory(10), logging.Discard())

	assert.Empty(t, c.Snapshot())
	assert.False(t, c.Loaded())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, c.Snapshot(), 2)
	assert.True(t, c.Loaded())

	v, ok := c.Find(2)
	assert.True(t, ok)
	assert.Equal(t, int64(2), v.ID)
	_, ok = c.Find(99)
	assert.False(t, ok)
}

func TestRefresh_FailureKeepsPrevious(t *testing.T) {
	lister := &fakeLister{videos: []media.VideoRecord{{ID: 1}}}
	reporter := notify.NewMemory(10)
	c := NewCoordinator(lister, okGate, reporter, logging.Discard())
	require.NoError(t, c.Refresh(context.Background()))

	lister.set(nil, errors.New("Error: backend down"))
	require.Error(t, c.Refresh(context.Background()))

	assert.Len(t, c.Snapshot(), 1)
	assert.Equal(t, []string{"Error: backend down"}, reporter.Messages(notify.Error))
}

func TestRefresh_GateFailureSkipsFetch(t *testing.T) {
	lister := &fakeLister{}
	reporter := notify.NewMemory(10)
	gate := identity.GateFunc(func(context.Context) error { return errors.New("no fingerprint") })
	c := NewCoordinator(lister, gate, reporter, logging.Discard())

	require.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(0), lister.calls.Load())
	assert.Len(t, reporter.Messages(notify.Error), 1)
}

func TestSubscribe(t *testing.T) {
	lister := &fakeLister{videos: []media.VideoRecord{{ID: 5}}}
	c := NewCoordinator(lister, okGate, notify.NewMemory(10), logging.Discard())

	var got []media.VideoRecord
	cancel := c.Subscribe(func(v []media.VideoRecord) { got = v })
	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, got, 1)

	cancel()
	lister.set([]media.VideoRecord{{ID: 5}, {ID: 6}}, nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, got, 1)
}

func TestRefresh_RepeatedMatchesSingle(t *testing.T) {
	videos := []media.VideoRecord{{ID: 1, Filename: "a-a1b2c3d4.mp4"}, {ID: 2, Filename: "b-a1b2c3d4.mp4"}}

	once := NewCoordinator(&fakeLister{videos: videos}, okGate, notify.NewMemory(10), logging.Discard())
	require.NoError(t, once.Refresh(context.Background()))

	twice := NewCoordinator(&fakeLister{videos: videos}, okGate, notify.NewMemory(10), logging.Discard())
	signal := twice.Signal()
	signal()
	signal()
	twice.Wait()

	assert.Equal(t, once.Snapshot(), twice.Snapshot())
}

func TestSignal_RunsRefresh(t *testing.T) {
	lister := &fakeLister{videos: []media.VideoRecord{{ID: 1}}}
	c := NewCoordinator(lister, okGate, notify.NewMemory(10), logging.Discard())

	signal := c.Signal()
	signal()
	signal()
	c.Wait()

	assert.Equal(t, int32(2), lister.calls.Load())
	assert.Len(t, c.Snapshot(), 1)
}

func TestPoller_RefreshesUntilCancelled(t *testing.T) {
	lister := &fakeLister{}
	c := NewCoordinator(lister, okGate, notify.NewMemory(10), logging.Discard())
	p := NewPoller(c, 10*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return lister.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.IsRunning())

	p.Pause()
	assert.True(t, p.IsPaused())
	p.Resume()
	assert.False(t, p.IsPaused())

	cancel()
	<-done
	assert.False(t, p.IsRunning())
}

func TestPoller_DisabledInterval(t *testing.T) {
	lister := &fakeLister{}
	c := NewCoordinator(lister, okGate, notify.NewMemory(10), logging.Discard())
	p := NewPoller(c, 0, logging.Discard())

	p.Start(context.Background())
	assert.Equal(t, int32(0), lister.calls.Load())
}
