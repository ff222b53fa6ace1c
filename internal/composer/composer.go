// Package composer holds the state of an edit being prepared for one video:
// which facets (trim, crop, compress) are enabled and their values. Submit
// turns that state into a single edit request.
package composer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/ephemvid/ephemvid-client/internal/backend"
	"github.com/ephemvid/ephemvid-client/internal/logging"
	"github.com/ephemvid/ephemvid-client/internal/media"
	"github.com/ephemvid/ephemvid-client/internal/notify"
)

// EditIntent is the payload sent to the backend.
type EditIntent = backend.EditRequest

const (
	// TrimStep is the trim handle resolution in seconds.
	TrimStep = 0.01

	SuccessMessage = "File edited successfully"
)

var (
	ErrHandlesCrossed = errors.New("trim start is after trim end")
	ErrCropDisabled   = errors.New("crop is not enabled")
	ErrCropGesture    = errors.New("crop gesture out of order")
	ErrNotFinite      = errors.New("value is not a finite number")
)

// Seeker moves the preview playhead.
type Seeker interface {
	Seek(seconds float64)
}

// LoadingObserver is told when an edit for a video starts and stops.
type LoadingObserver interface {
	SetLoading(videoID int64, loading bool)
}

type Editor interface {
	Edit(ctx context.Context, req backend.EditRequest) (string, error)
}

type Deps struct {
	Editor   Editor
	Reporter notify.Reporter
	Loading  LoadingObserver
	Refresh  func()
	Logger   *slog.Logger
}

type Composer struct {
	video  media.VideoRecord
	bounds Bounds
	seeker Seeker

	editor   Editor
	reporter notify.Reporter
	loading  LoadingObserver
	refresh  func()
	logger   *slog.Logger

	mu         sync.Mutex
	trimOn     bool
	cropOn     bool
	compressOn bool
	start, end float64
	crop       cropState
	compressMB float64
}

// Open starts composing an edit of video. seeker may be nil. bounds is the
// preview size the crop rectangle is confined to; a zero Bounds disables
// confinement.
func Open(video media.VideoRecord, bounds Bounds, seeker Seeker, deps Deps) *Composer {
	refresh := deps.Refresh
	if refresh == nil {
		refresh = func() {}
	}
	c := &Composer{
		video:    video,
		bounds:   bounds,
		seeker:   seeker,
		editor:   deps.Editor,
		reporter: deps.Reporter,
		loading:  deps.Loading,
		refresh:  refresh,
		logger:   logging.WithVideoID(logging.WithComponent(deps.Logger, "composer"), video.ID),
	}
	c.reset()
	return c
}

func (c *Composer) Video() media.VideoRecord { return c.video }

// reset restores every facet to its default. Callers hold mu or own c
// exclusively.
func (c *Composer) reset() {
	c.trimOn, c.cropOn, c.compressOn = false, false, false
	c.start, c.end = 0, c.video.Duration
	c.crop = newCropState(c.bounds)
	c.compressMB = c.video.SizeMB()
}

// Close discards the composition.
func (c *Composer) Close() {
	c.mu.Lock()
	c.reset()
	c.mu.Unlock()
}

func (c *Composer) ToggleTrim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trimOn = !c.trimOn
	return c.trimOn
}

func (c *Composer) ToggleCrop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cropOn = !c.cropOn
	return c.cropOn
}

func (c *Composer) ToggleCompress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compressOn = !c.compressOn
	return c.compressOn
}

func (c *Composer) SetTrimEnabled(on bool) {
	c.mu.Lock()
	c.trimOn = on
	c.mu.Unlock()
}

func (c *Composer) SetCropEnabled(on bool) {
	c.mu.Lock()
	c.cropOn = on
	c.mu.Unlock()
}

func (c *Composer) SetCompressEnabled(on bool) {
	c.mu.Lock()
	c.compressOn = on
	c.mu.Unlock()
}

func (c *Composer) TrimEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trimOn
}

func (c *Composer) CropEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cropOn
}

func (c *Composer) CompressEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compressOn
}

// SetCompressMB sets the target size, clamped to [0, SizeMB()] at two
// decimals, and returns the stored value.
func (c *Composer) SetCompressMB(mb float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !finite(mb) {
		return c.compressMB
	}
	c.compressMB = clamp(round2(mb), 0, c.video.SizeMB())
	return c.compressMB
}

func (c *Composer) CompressMB() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compressMB
}

// BuildPayload renders the enabled facets. Crop is included only once a
// crop gesture has been committed.
func (c *Composer) BuildPayload() EditIntent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildPayload()
}

func (c *Composer) buildPayload() EditIntent {
	intent := EditIntent{ID: c.video.ID}
	if c.trimOn {
		start, end := c.start, c.end
		intent.StartTime = &start
		intent.EndTime = &end
	}
	if c.compressOn {
		kb := int(math.Round(c.compressMB * 1000))
		intent.CompressTo = &kb
	}
	if c.cropOn && c.crop.committed != nil {
		r := *c.crop.committed
		intent.CropX, intent.CropY = &r.X, &r.Y
		intent.CropWidth, intent.CropHeight = &r.Width, &r.Height
	}
	return intent
}

// Submit sends the composed edit. The composer is reset before the request
// goes out. Loading is cleared and the roster refreshed whatever the
// result.
func (c *Composer) Submit(ctx context.Context) error {
	c.mu.Lock()
	intent := c.buildPayload()
	c.reset()
	c.mu.Unlock()

	if c.loading != nil {
		c.loading.SetLoading(c.video.ID, true)
	}
	defer func() {
		if c.loading != nil {
			c.loading.SetLoading(c.video.ID, false)
		}
		c.refresh()
	}()

	c.logger.Info("submitting edit",
		"trim", intent.StartTime != nil,
		"crop", intent.CropX != nil,
		"compress", intent.CompressTo != nil,
	)

	if _, err := c.editor.Edit(ctx, intent); err != nil {
		c.logger.Warn("edit failed", "error", err)
		c.reporter.Report(err.Error(), notify.Error)
		return err
	}
	c.reporter.Report(SuccessMessage, notify.Success)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
