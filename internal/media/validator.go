package media

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Reason explains why a candidate was rejected.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonTooManyFiles Reason = "too many files"
	ReasonWrongType    Reason = "wrong file type"
	ReasonTooBig       Reason = "file too big"
)

const (
	DefaultMaxBatch = 10
	DefaultMaxBytes = 200 * 1024 * 1024
)

// DefaultAllowedTypes are the accepted video container types.
var DefaultAllowedTypes = []string{"video/mp4", "video/quicktime", "video/webm"}

// Descriptor is what a candidate declares about itself.
type Descriptor struct {
	Name      string
	MediaType string
	Size      int64
}

// Decision is the validator verdict for one batch item.
type Decision struct {
	Descriptor
	Accepted bool
	Reason   Reason

	limit string
}

// Message is the user-facing text for a rejection. Accepted decisions
// return an empty string.
func (d Decision) Message() string {
	switch d.Reason {
	case ReasonTooManyFiles:
		return fmt.Sprintf("Too many files were given (limit: %s)", d.limit)
	case ReasonWrongType:
		return fmt.Sprintf("%s: Wrong file type", d.Name)
	case ReasonTooBig:
		return fmt.Sprintf("%s: File is too big (limit: %s)", d.Name, d.limit)
	default:
		return ""
	}
}

// Policy holds the upload limits. The zero value is not useful; use
// NewPolicy or DefaultPolicy.
type Policy struct {
	MaxBatch int
	MaxBytes int64
	allowed  map[string]bool
}

func NewPolicy(maxBatch int, maxBytes int64, allowedTypes []string) Policy {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return Policy{MaxBatch: maxBatch, MaxBytes: maxBytes, allowed: allowed}
}

func DefaultPolicy() Policy {
	return NewPolicy(DefaultMaxBatch, DefaultMaxBytes, DefaultAllowedTypes)
}

// Allows reports whether mediaType is on the allow-list.
func (p Policy) Allows(mediaType string) bool {
	return p.allowed[mediaType]
}

// Validate returns one decision per item, in input order. An oversized
// batch rejects every item without looking at them individually; otherwise
// each item is checked for type, then size, independently of its siblings.
func (p Policy) Validate(batch []Descriptor) []Decision {
	decisions := make([]Decision, len(batch))

	if len(batch) > p.MaxBatch {
		limit := fmt.Sprintf("%d", p.MaxBatch)
		for i, d := range batch {
			decisions[i] = Decision{Descriptor: d, Reason: ReasonTooManyFiles, limit: limit}
		}
		return decisions
	}

	for i, d := range batch {
		decisions[i] = p.check(d)
	}
	return decisions
}

func (p Policy) check(d Descriptor) Decision {
	if !p.Allows(d.MediaType) {
		return Decision{Descriptor: d, Reason: ReasonWrongType}
	}
	if d.Size > p.MaxBytes {
		return Decision{Descriptor: d, Reason: ReasonTooBig, limit: humanize.IBytes(uint64(p.MaxBytes))}
	}
	return Decision{Descriptor: d, Accepted: true}
}
