package composer

// Range returns the current trim handles.
func (c *Composer) Range() (start, end float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start, c.end
}

// MoveStart moves the lower handle, clamped to [0, end], and returns the
// stored value. NaN and infinities leave the handle where it is.
func (c *Composer) MoveStart(v float64) float64 {
	c.mu.Lock()
	prev := c.start
	if !finite(v) {
		c.mu.Unlock()
		return prev
	}
	c.start = clamp(round2(v), 0, c.end)
	start := c.start
	c.mu.Unlock()

	if start != prev {
		c.seek(start)
	}
	return start
}

// MoveEnd moves the upper handle, clamped to [start, duration].
func (c *Composer) MoveEnd(v float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !finite(v) {
		return c.end
	}
	c.end = clamp(round2(v), c.start, c.video.Duration)
	return c.end
}

// SetRange sets both handles at once. Crossed input is rejected and leaves
// the handles untouched.
func (c *Composer) SetRange(start, end float64) error {
	if !finite(start, end) {
		return ErrNotFinite
	}
	if start > end {
		return ErrHandlesCrossed
	}

	c.mu.Lock()
	prev := c.start
	c.start = clamp(round2(start), 0, c.video.Duration)
	c.end = clamp(round2(end), c.start, c.video.Duration)
	newStart := c.start
	c.mu.Unlock()

	if newStart != prev {
		c.seek(newStart)
	}
	return nil
}

func (c *Composer) seek(v float64) {
	if c.seeker != nil {
		c.seeker.Seek(v)
	}
}
