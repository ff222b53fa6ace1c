package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ephemvid/ephemvid-client/internal/backend"
	"github.com/ephemvid/ephemvid-client/internal/identity"
	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

type fakeUploader struct {
	mu      sync.Mutex
	events  *[]string
	bodies  map[string]string
	fail    map[string]error
	release chan struct{}
}

func (f *fakeUploader) Upload(ctx context.Context, filename, mediaType string, body io.Reader) (string, error) {
	if f.release != nil {
		<-f.release
	}
	data, _ := io.ReadAll(body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events != nil {
		*f.events = append(*f.events, "upload:"+filename)
	}
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[filename] = string(data)
	if err := f.fail[filename]; err != nil {
		return "", err
	}
	return "Video uploaded", nil
}

func (f *fakeUploader) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for n := range f.bodies {
		names = append(names, n)
	}
	return names
}

func candidate(name, mediaType string, size int64) media.Candidate {
	return media.Candidate{
		Name:      name,
		MediaType: mediaType,
		Size:      size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("data-" + name)), nil
		},
	}
}

type harness struct {
	pipeline  *Pipeline
	uploader  *fakeUploader
	reporter  *notify.Memory
	refreshes *atomic.Int32
}

func newHarness(t *testing.T, uploader *fakeUploader, gate identity.Gate) harness {
	t.Helper()
	if gate == nil {
		gate = identity.GateFunc(func(context.Context) error { return nil })
	}
	reporter := notify.NewMemory(50)
	var refreshes atomic.Int32
	p := NewPipeline(Config{
		Uploader: uploader,
		Gate:     gate,
		Reporter: reporter,
		Refresh:  func() { refreshes.Add(1) },
		Logger:   logging.Discard(),
	})
	return harness{pipeline: p, uploader: uploader, reporter: reporter, refreshes: &refreshes}
}

func TestSubmit_UploadsOnlyAccepted(t *testing.T) {
	h := newHarness(t, &fakeUploader{}, nil)

	sub := h.pipeline.Submit(context.Background(), []media.Candidate{
		candidate("a.mp4", "video/mp4", 1024),
		candidate("notes.txt", "text/plain", 10),
		candidate("huge.mp4", "video/mp4", media.DefaultMaxBytes+1),
	})
	outcomes := sub.Wait()

	require.Len(t, sub.Decisions(), 3)
	require.Len(t, sub.Accepted(), 1)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].OK())
	assert.Equal(t, []string{"a.mp4"}, h.uploader.uploaded())
	assert.Equal(t, "data-a.mp4", h.uploader.bodies["a.mp4"])

	warnings := h.reporter.Messages(notify.Warning)
	assert.Equal(t, []string{
		"notes.txt: Wrong file type",
		"huge.mp4: File is too big (limit: 200 MiB)",
	}, warnings)
	assert.Equal(t, int32(1), h.refreshes.Load())
}

func TestSubmit_TooManyFiles(t *testing.T) {
	h := newHarness(t, &fakeUploader{}, nil)

	batch := make([]media.Candidate, 11)
	for i := range batch {
		batch[i] = candidate("clip.mp4", "video/mp4", 1)
	}
	sub := h.pipeline.Submit(context.Background(), batch)

	assert.Empty(t, sub.Wait())
	assert.Empty(t, sub.Accepted())
	assert.Empty(t, h.uploader.uploaded())
	assert.Equal(t, []string{"Too many files were given (limit: 10)"}, h.reporter.Messages(notify.Warning))
	assert.Equal(t, int32(0), h.refreshes.Load())
}

func TestSubmit_FailureReportsAndSkipsRefresh(t *testing.T) {
	uploader := &fakeUploader{fail: map[string]error{
		"bad.mp4": &backend.APIError{StatusCode: 400, Message: "quota exceeded"},
	}}
	h := newHarness(t, uploader, nil)

	sub := h.pipeline.Submit(context.Background(), []media.Candidate{
		candidate("good.mp4", "video/mp4", 1),
		candidate("bad.mp4", "video/mp4", 1),
	})
	outcomes := sub.Wait()
	require.Len(t, outcomes, 2)

	var failed int
	for _, o := range outcomes {
		if !o.OK() {
			failed++
			assert.Equal(t, "bad.mp4", o.Name)
			assert.Equal(t, "Error: quota exceeded", o.Message)
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, int32(1), h.refreshes.Load())
	assert.Equal(t, []string{"Error: quota exceeded"}, h.reporter.Messages(notify.Error))
	assert.Equal(t, []string{"Video uploaded"}, h.reporter.Messages(notify.Success))
}

func TestSubmit_PendingNotificationResolvedInPlace(t *testing.T) {
	h := newHarness(t, &fakeUploader{}, nil)

	h.pipeline.Submit(context.Background(), []media.Candidate{candidate("a.mp4", "video/mp4", 1)}).Wait()

	entries := h.reporter.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Video uploaded", entries[0].Message)
	assert.Equal(t, "success", entries[0].Severity)
}

func TestSubmit_GateRunsBeforeTransfer(t *testing.T) {
	var events []string
	uploader := &fakeUploader{events: &events}
	gate := identity.GateFunc(func(context.Context) error {
		uploader.mu.Lock()
		events = append(events, "gate")
		uploader.mu.Unlock()
		return nil
	})
	h := newHarness(t, uploader, gate)

	h.pipeline.Submit(context.Background(), []media.Candidate{candidate("a.mp4", "video/mp4", 1)}).Wait()

	assert.Equal(t, []string{"gate", "upload:a.mp4"}, events)
}

func TestSubmit_GateFailureStillUploads(t *testing.T) {
	gate := identity.GateFunc(func(context.Context) error { return errors.New("no identity") })
	h := newHarness(t, &fakeUploader{}, gate)

	outcomes := h.pipeline.Submit(context.Background(), []media.Candidate{candidate("a.mp4", "video/mp4", 1)}).Wait()

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].OK())
}

func TestSubmit_ReturnsBeforeTransfersSettle(t *testing.T) {
	uploader := &fakeUploader{release: make(chan struct{})}
	h := newHarness(t, uploader, nil)

	done := make(chan *Submission)
	go func() {
		done <- h.pipeline.Submit(context.Background(), []media.Candidate{candidate("a.mp4", "video/mp4", 1)})
	}()

	var sub *Submission
	select {
	case sub = <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on the transfer")
	}

	close(uploader.release)
	assert.Len(t, sub.Wait(), 1)
}

func TestDropZone_Dragging(t *testing.T) {
	h := newHarness(t, &fakeUploader{}, nil)
	z := NewDropZone(h.pipeline, h.reporter)

	assert.False(t, z.Dragging())
	z.DragOver()
	assert.True(t, z.Dragging())
	z.DragLeave()
	assert.False(t, z.Dragging())

	z.DragOver()
	z.Drop(context.Background(), nil).Wait()
	assert.False(t, z.Dragging())
}

func TestDropZone_PickReadsFiles(t *testing.T) {
	h := newHarness(t, &fakeUploader{}, nil)
	z := NewDropZone(h.pipeline, h.reporter)

	dir := t.TempDir()
	path := filepath.Join(dir, "holiday.mp4")
	require.NoError(t, os.WriteFile(path, []byte("mp4 bytes"), 0o644))

	outcomes := z.Pick(context.Background(), []string{path, filepath.Join(dir, "missing.mp4")}).Wait()
	require.Len(t, outcomes, 2)

	var ok, failed int
	for _, o := range outcomes {
		if o.OK() {
			ok++
		} else {
			failed++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, "mp4 bytes", h.uploader.bodies["holiday.mp4"])
	assert.Len(t, h.reporter.Messages(notify.Error), 1)
}

func TestDropZone_BatchLimitCountsUnreadablePaths(t *testing.T) {
	h := newHarness(t, &fakeUploader{}, nil)
	z := NewDropZone(h.pipeline, h.reporter)

	dir := t.TempDir()
	var paths []string
	for i := 0; i < media.DefaultMaxBatch; i++ {
		path := filepath.Join(dir, fmt.Sprintf("clip-%02d.mp4", i))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		paths = append(paths, path)
	}
	sub := filepath.Join(dir, "folder")
	require.NoError(t, os.Mkdir(sub, 0o755))
	paths = append(paths, sub)

	submission := z.Drop(context.Background(), paths)
	outcomes := submission.Wait()

	assert.Empty(t, outcomes)
	assert.Empty(t, h.uploader.uploaded())
	require.Len(t, submission.Decisions(), len(paths))
	for _, d := range submission.Decisions() {
		assert.Equal(t, media.ReasonTooManyFiles, d.Reason)
	}
	assert.Equal(t, []string{"Too many files were given (limit: 10)"}, h.reporter.Messages(notify.Warning))
	assert.Empty(t, h.reporter.Messages(notify.Error))
	assert.Equal(t, int32(0), h.refreshes.Load())
}
