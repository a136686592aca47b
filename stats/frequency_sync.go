//go:build sync

package stats

import "go.uber.org/atomic"

// Frequency accumulates a running sum/count of recorded values for access
// frequency tracking. This variant is built with the sync build tag, for
// callers sharing one Haw across goroutines: every field is a wrapped
// atomic so Record can be called without an external lock.
type Frequency struct {
	sum   atomic.Uint64
	count atomic.Uint64
}

func (f *Frequency) Sum() uint64   { return f.sum.Load() }
func (f *Frequency) Count() uint64 { return f.count.Load() }

func (f *Frequency) Avg() uint64 {
	count := f.count.Load()
	if count == 0 {
		return 0
	}
	return f.sum.Load() / count
}

func (f *Frequency) Record(value uint64) {
	f.sum.Add(value)
	f.count.Add(1)
}
