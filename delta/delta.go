// Package delta maintains the bounded delta log: the sequence of frozen
// partials emitted on every tick when a Haw is configured to generate
// deltas, used for replication and recovery ingress via delta_advance.
//
// The original crate keeps an unbounded Vec<Option<Partial>>. That
// contradicts the bounded-memory purpose of the wheel hierarchy itself for
// any long-running process, so here the log is chunked into sealed,
// checksummed segments and only a fixed window of recent segments is
// retained; older segments are expected to have already been drained by a
// replication consumer before they age out.
package delta

import (
	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"
)

// DefaultSegmentCapacity bounds how many deltas accumulate in a segment
// before it is sealed and a new one started.
const DefaultSegmentCapacity = 3600

// DefaultRetainedSegments bounds how many sealed segments are kept once
// full; older ones are dropped.
const DefaultRetainedSegments = 2

// Segment is a sealed, checksummed run of deltas. Deltas is nil entries
// where the original tick had no write-ahead data (an empty tick).
type Segment[P any] struct {
	ID       ulid.ULID
	Deltas   []*P
	Checksum uint64
}

// State is the bounded ring of delta segments for one Haw instance.
type State[P any] struct {
	segCap    int
	retain    int
	sealed    []Segment[P]
	open      []*P
	hashInput func(*P) []byte
}

// New constructs a delta State. hashInput serializes a single delta entry
// (nil-safe) for the segment checksum; callers without a meaningful byte
// encoding for Partial may pass nil to disable checksums (Checksum stays
// zero on every sealed segment).
func New[P any](segCap, retain int, hashInput func(*P) []byte) *State[P] {
	if segCap <= 0 {
		segCap = DefaultSegmentCapacity
	}
	if retain <= 0 {
		retain = DefaultRetainedSegments
	}
	return &State[P]{
		segCap:    segCap,
		retain:    retain,
		hashInput: hashInput,
	}
}

// Push appends one tick's delta (nil for an empty tick) to the open
// segment, sealing and rotating it once segCap is reached.
func (s *State[P]) Push(id ulid.ULID, delta *P) {
	s.open = append(s.open, delta)
	if len(s.open) >= s.segCap {
		s.seal(id)
	}
}

func (s *State[P]) seal(id ulid.ULID) {
	seg := Segment[P]{ID: id, Deltas: s.open}
	if s.hashInput != nil {
		h := xxhash.New()
		for _, d := range seg.Deltas {
			if d == nil {
				continue
			}
			_, _ = h.Write(s.hashInput(d))
		}
		seg.Checksum = h.Sum64()
	}
	s.sealed = append(s.sealed, seg)
	if len(s.sealed) > s.retain {
		s.sealed = s.sealed[len(s.sealed)-s.retain:]
	}
	s.open = nil
}

// Flush forcibly seals the open segment even if it has not reached
// capacity, used when a caller wants to drain the log ahead of a replica
// handoff.
func (s *State[P]) Flush(id ulid.ULID) {
	if len(s.open) == 0 {
		return
	}
	s.seal(id)
}

// Sealed returns the retained sealed segments, oldest first.
func (s *State[P]) Sealed() []Segment[P] { return s.sealed }

// Open returns the in-progress segment's deltas so far.
func (s *State[P]) Open() []*P { return s.open }

// Len reports the total number of deltas currently retained (sealed plus
// open), for size estimation.
func (s *State[P]) Len() int {
	n := len(s.open)
	for _, seg := range s.sealed {
		n += len(seg.Deltas)
	}
	return n
}
