package wheel

// MaybeWheel lazily allocates its backing AggregationWheel on first use, so
// a Haw configured with, say, only seconds and minutes pays zero memory for
// the hours/days/weeks/years granularities it never populates.
type MaybeWheel[P any] struct {
	ops  Ops[P]
	conf Conf
	w    *AggregationWheel[P]
}

// NewMaybe returns a MaybeWheel that will construct its wheel with ops and
// conf the first time it is needed.
func NewMaybe[P any](ops Ops[P], conf Conf) *MaybeWheel[P] {
	return &MaybeWheel[P]{ops: ops, conf: conf}
}

// Get returns the backing wheel, allocating it if this is the first call.
func (m *MaybeWheel[P]) Get() (*AggregationWheel[P], error) {
	if m.w == nil {
		w, err := New(m.ops, m.conf)
		if err != nil {
			return nil, err
		}
		m.w = w
	}
	return m.w, nil
}

// Allocated reports whether the backing wheel has been constructed yet.
func (m *MaybeWheel[P]) Allocated() bool { return m.w != nil }

// Peek returns the backing wheel without allocating, and false if it does
// not exist yet.
func (m *MaybeWheel[P]) Peek() (*AggregationWheel[P], bool) {
	return m.w, m.w != nil
}

// Clear deallocates the wheel entirely, reverting to the zero-footprint
// unallocated state.
func (m *MaybeWheel[P]) Clear() {
	m.w = nil
}
