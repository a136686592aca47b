package window

import "time"

// Fire is a completed window result: the watermark at which it fired, and
// the folded partial aggregate covering the preceding Range.
type Fire[P any] struct {
	TimestampMs int64
	Partial     P
}

// Manager owns the pair state and the stack of pending pair partials for
// one installed sliding window. CombineRange is supplied by the caller
// (the top-level Haw) since computing it requires access to the full wheel
// hierarchy, which this package does not depend on.
type Manager[P any] struct {
	ops   Ops[P]
	State *PairState
	pairs []P // oldest first; capped at ceil(Range/min(Slide,Range-Slide)) entries
}

// NewManager installs a window(rng, slide) starting at watermarkMs (unix
// millis). rng must be >= slide.
func NewManager[P any](ops Ops[P], rng, slide time.Duration, watermarkMs int64) (*Manager[P], error) {
	state, err := NewPairState(rng, slide, watermarkMs)
	if err != nil {
		return nil, err
	}
	return &Manager[P]{ops: ops, State: state}, nil
}

// Push appends a newly completed pair's partial onto the stack.
func (m *Manager[P]) Push(p P) {
	m.pairs = append(m.pairs, p)
}

// Pop discards the oldest pending pair, matching the original's eviction
// of a pair once a window has fired and slid past it.
func (m *Manager[P]) Pop() {
	if len(m.pairs) == 0 {
		return
	}
	m.pairs = m.pairs[1:]
}

// Query folds every pending pair into a single partial, the window's
// current aggregate.
func (m *Manager[P]) Query() P {
	acc := m.ops.Identity
	for _, p := range m.pairs {
		acc = m.ops.Combine(acc, p)
	}
	return acc
}

// Tick advances pair bookkeeping by one second and, via combineRange,
// computes and pushes a newly completed pair's partial when its tick
// budget is exhausted. It returns a Fire if the window itself completed at
// this tick (watermarkMs == NextWindowEnd), i.e. enough pairs have
// accumulated to cover Range.
//
// combineRange must compute combine_range([watermarkMs-pairLenMs,
// watermarkMs)) against the full wheel hierarchy; the window manager
// itself holds no wheel state.
func (m *Manager[P]) Tick(watermarkMs int64, combineRange func(fromMs, toMs int64) P) *Fire[P] {
	s := m.State
	s.PairTicksRemaining--
	if s.PairTicksRemaining > 0 {
		return nil
	}

	pairLenMs := int64(s.CurrentPairLen / time.Millisecond)
	pair := combineRange(watermarkMs-pairLenMs, watermarkMs)
	m.Push(pair)

	s.updatePairLen()
	s.NextPairEnd = watermarkMs + int64(s.CurrentPairLen/time.Millisecond)
	s.PairTicksRemaining = int64(s.CurrentPairDuration() / time.Second)

	if watermarkMs == s.NextWindowEnd {
		fire := &Fire[P]{TimestampMs: watermarkMs, Partial: m.Query()}
		m.Pop()
		s.NextWindowEnd += int64(s.Slide / time.Millisecond)
		return fire
	}
	return nil
}
