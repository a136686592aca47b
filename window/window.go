// Package window implements the pair-based sliding window decomposition
// that rides on top of a Haw's tick cascade: a window of length Range
// sliding by Slide is covered by concatenating "pairs" of alternating
// length, so a fixed-size stack of combined pairs reproduces the full
// window sum without ever re-scanning history.
package window

import (
	"fmt"
	"time"
)

// Ops is the subset of the Aggregator contract the window manager needs:
// combining two partials and pushing/popping a running fold (implemented
// here as a simple FIFO queue combined on demand, since windows query only
// at fire time).
type Ops[P any] struct {
	Combine  func(a, b P) P
	Identity P
}

// PairState tracks the bookkeeping needed to decompose a [Range, Slide)
// sliding window into pairs, grounded in the tick-by-tick algorithm
// described for HAW's window manager.
type PairState struct {
	Range time.Duration
	Slide time.Duration

	CurrentPairLen     time.Duration
	PairTicksRemaining int64

	NextPairEnd   int64 // unix millis
	NextWindowEnd int64 // unix millis
}

// NewPairState builds the initial pair state for a window(rng, slide)
// installation, starting at the given watermark (unix millis).
func NewPairState(rng, slide time.Duration, watermarkMs int64) (*PairState, error) {
	if slide > rng {
		return nil, fmt.Errorf("window: slide must not exceed range")
	}
	s := &PairState{Range: rng, Slide: slide}
	s.CurrentPairLen = s.firstPairLen()
	s.PairTicksRemaining = int64(s.CurrentPairLen / time.Second)
	s.NextPairEnd = watermarkMs + int64(s.CurrentPairLen/time.Millisecond)
	s.NextWindowEnd = watermarkMs + int64(rng/time.Millisecond)
	return s, nil
}

// firstPairLen returns Slide for an aligned window (Range is a multiple of
// Slide) or Range-Slide otherwise, alternating on each call to updatePairLen.
func (s *PairState) firstPairLen() time.Duration {
	if s.Range%s.Slide == 0 {
		return s.Slide
	}
	return s.Range - s.Slide
}

// updatePairLen alternates the pair length between Slide and Range-Slide
// for unaligned windows; aligned windows keep a constant Slide-length pair.
func (s *PairState) updatePairLen() {
	if s.Range%s.Slide == 0 {
		s.CurrentPairLen = s.Slide
		return
	}
	if s.CurrentPairLen == s.Slide {
		s.CurrentPairLen = s.Range - s.Slide
	} else {
		s.CurrentPairLen = s.Slide
	}
}

// CurrentPairDuration returns the duration of the in-flight pair.
func (s *PairState) CurrentPairDuration() time.Duration { return s.CurrentPairLen }
