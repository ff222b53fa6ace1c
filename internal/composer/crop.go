package composer

import "math"

// DefaultCropSize is the side of the crop rectangle before any gesture.
const DefaultCropSize = 30

// Bounds is the size of the preview surface in pixels.
type Bounds struct {
	Width  int
	Height int
}

// Rect is a committed crop rectangle in whole pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type gesture int

const (
	gestureIdle gesture = iota
	gestureDrag
	gestureResize
)

type cropState struct {
	bounds     Bounds
	x, y, w, h float64
	gesture    gesture
	committed  *Rect
}

func newCropState(b Bounds) cropState {
	s := cropState{bounds: b, w: DefaultCropSize, h: DefaultCropSize}
	s.confine()
	return s
}

// confine keeps the live rectangle inside the bounds.
func (s *cropState) confine() {
	if s.bounds.Width > 0 {
		s.w = clamp(s.w, 1, float64(s.bounds.Width))
		s.x = clamp(s.x, 0, float64(s.bounds.Width)-s.w)
	} else {
		s.w = math.Max(s.w, 1)
		s.x = math.Max(s.x, 0)
	}
	if s.bounds.Height > 0 {
		s.h = clamp(s.h, 1, float64(s.bounds.Height))
		s.y = clamp(s.y, 0, float64(s.bounds.Height)-s.h)
	} else {
		s.h = math.Max(s.h, 1)
		s.y = math.Max(s.y, 0)
	}
}

func (s *cropState) commit() Rect {
	r := Rect{
		X:      int(math.Round(s.x)),
		Y:      int(math.Round(s.y)),
		Width:  int(math.Round(s.w)),
		Height: int(math.Round(s.h)),
	}
	s.committed = &r
	s.gesture = gestureIdle
	return r
}

func (s *cropState) live() Rect {
	return Rect{
		X:      int(math.Round(s.x)),
		Y:      int(math.Round(s.y)),
		Width:  int(math.Round(s.w)),
		Height: int(math.Round(s.h)),
	}
}

// CropRect returns the live rectangle, rounded to pixels.
func (c *Composer) CropRect() Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.crop.live()
}

// CommittedCrop returns the last committed rectangle. ok is false while the
// crop is untouched.
func (c *Composer) CommittedCrop() (r Rect, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crop.committed == nil {
		return Rect{}, false
	}
	return *c.crop.committed, true
}

func (c *Composer) beginGesture(g gesture) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cropOn {
		return ErrCropDisabled
	}
	if c.crop.gesture != gestureIdle {
		return ErrCropGesture
	}
	c.crop.gesture = g
	return nil
}

func (c *Composer) BeginDrag() error { return c.beginGesture(gestureDrag) }

// DragTo moves the rectangle's origin during a drag.
func (c *Composer) DragTo(x, y float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crop.gesture != gestureDrag {
		return ErrCropGesture
	}
	if !finite(x, y) {
		return ErrNotFinite
	}
	c.crop.x, c.crop.y = x, y
	c.crop.confine()
	return nil
}

// EndDrag commits the whole live rectangle.
func (c *Composer) EndDrag() (Rect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crop.gesture != gestureDrag {
		return Rect{}, ErrCropGesture
	}
	return c.crop.commit(), nil
}

func (c *Composer) BeginResize() error { return c.beginGesture(gestureResize) }

// ResizeTo sets position and size during a resize; resizing from the top or
// left edge moves the origin as well.
func (c *Composer) ResizeTo(x, y, w, h float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crop.gesture != gestureResize {
		return ErrCropGesture
	}
	if !finite(x, y, w, h) {
		return ErrNotFinite
	}
	c.crop.x, c.crop.y, c.crop.w, c.crop.h = x, y, w, h
	c.crop.confine()
	return nil
}

func (c *Composer) EndResize() (Rect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.crop.gesture != gestureResize {
		return Rect{}, ErrCropGesture
	}
	return c.crop.commit(), nil
}

// SetCrop applies a complete rectangle as a single resize gesture.
func (c *Composer) SetCrop(r Rect) (Rect, error) {
	if err := c.BeginResize(); err != nil {
		return Rect{}, err
	}
	if err := c.ResizeTo(float64(r.X), float64(r.Y), float64(r.Width), float64(r.Height)); err != nil {
		return Rect{}, err
	}
	return c.EndResize()
}
