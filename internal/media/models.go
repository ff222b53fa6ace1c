// Package media holds the client-side view of videos: the server-owned
// VideoRecord, the ephemeral upload Candidate and the batch validator.
package media

import (
	"fmt"
	"io"
	"math"
	"time"
)

// serverSuffixLen is the length of the tail the backend appends to every
// uploaded name: a disambiguating suffix plus the extension, e.g.
// "-a1b2c3d4.mp4".
const serverSuffixLen = 13

// VideoRecord is a file as reported by GET /all. It is read-only to the
// client and replaced wholesale on every roster refresh.
type VideoRecord struct {
	ID        int64   `json:"id"`
	Filename  string  `json:"filename"`
	CreatedAt int64   `json:"created_at"`
	Duration  float64 `json:"duration"`
	Size      int64   `json:"size"`
}

// Created returns CreatedAt (unix seconds) as a time.Time.
func (v VideoRecord) Created() time.Time {
	return time.Unix(v.CreatedAt, 0)
}

// DisplayName strips the server suffix from the filename.
func (v VideoRecord) DisplayName() string {
	if len(v.Filename) <= serverSuffixLen {
		return v.Filename
	}
	return v.Filename[:len(v.Filename)-serverSuffixLen]
}

// SizeMB is the size in decimal megabytes rounded to two decimals. This is
// the upper bound of the compress slider.
func (v VideoRecord) SizeMB() float64 {
	return math.Round(float64(v.Size)/1_000_000*100) / 100
}

// Candidate is a locally selected file prior to validation. Open is called
// once, right before the transfer starts.
type Candidate struct {
	Name      string
	MediaType string
	Size      int64
	Open      func() (io.ReadCloser, error)
}

// Descriptor returns the fields the validator looks at.
func (c Candidate) Descriptor() Descriptor {
	return Descriptor{Name: c.Name, MediaType: c.MediaType, Size: c.Size}
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", c.Name, c.MediaType, c.Size)
}
