package wheel

import "fmt"

// AggregationWheel is a fixed-capacity ring of Partial slots for a single
// granularity (seconds, minutes, hours, ...). Ticking advances the head by
// one slot; aggregating over the whole wheel combines every occupied slot
// (Array layout) or does an O(1) prefix subtraction (Prefix layout).
type AggregationWheel[P any] struct {
	ops      Ops[P]
	conf     Conf
	slots    []P
	occupied []bool
	// prefix[i] holds Combine(slots[0..i]) when conf.Layout == Prefix.
	prefix []P

	head          int
	rotationCount uint64
	total         P

	// kept holds every completed cycle's slots, archived at rotation when
	// conf.Retention == Keep. It grows without bound; callers choosing Keep accept that
	// tradeoff explicitly (see RetentionPolicy docs).
	kept []P
}

// New constructs an AggregationWheel. It returns ErrPrefixRequiresGroup if
// conf.Layout is Prefix but ops.Inverse is nil.
func New[P any](ops Ops[P], conf Conf) (*AggregationWheel[P], error) {
	if conf.Layout == Prefix && ops.Inverse == nil {
		return nil, ErrPrefixRequiresGroup
	}
	w := &AggregationWheel[P]{
		ops:      ops,
		conf:     conf,
		slots:    make([]P, conf.Capacity),
		occupied: make([]bool, conf.Capacity),
		total:    ops.Identity,
	}
	for i := range w.slots {
		w.slots[i] = ops.Identity
	}
	if conf.Layout == Prefix {
		w.prefix = make([]P, conf.Capacity)
		for i := range w.prefix {
			w.prefix[i] = ops.Identity
		}
	}
	return w, nil
}

func (w *AggregationWheel[P]) Len() int          { return w.conf.Capacity }
func (w *AggregationWheel[P]) Head() int         { return w.head }
func (w *AggregationWheel[P]) Rotations() uint64 { return w.rotationCount }

// InsertHead combines delta into the current head slot.
func (w *AggregationWheel[P]) InsertHead(delta P) {
	w.slots[w.head] = w.ops.Combine(w.slots[w.head], delta)
	w.occupied[w.head] = true
	w.total = w.ops.Combine(w.total, delta)
	if w.conf.Layout == Prefix {
		w.rebuildPrefixFrom(w.head)
	}
}

// InsertSlot combines delta into the slot `ticksAgo` positions behind head.
// Used by the Haw cascade to deposit a finer wheel's rollup into a coarser
// wheel slot that has not yet rotated past.
func (w *AggregationWheel[P]) InsertSlot(ticksAgo int, delta P) {
	idx := w.indexBehindHead(ticksAgo)
	w.slots[idx] = w.ops.Combine(w.slots[idx], delta)
	w.occupied[idx] = true
	w.total = w.ops.Combine(w.total, delta)
	if w.conf.Layout == Prefix {
		w.rebuildPrefixFrom(idx)
	}
}

func (w *AggregationWheel[P]) indexBehindHead(ticksAgo int) int {
	n := w.conf.Capacity
	idx := ((w.head-ticksAgo)%n + n) % n
	return idx
}

// Tick advances the head by one slot. A wheel's ring fills across exactly
// one full cycle (one slot written per tick); when the head wraps past the
// last slot back to zero, that cycle has just completed: rotated is true,
// rollup is the combination of every slot written during it (the upward
// contribution a caller should insert into the next coarser granularity's
// wheel), and the ring resets to empty so the next cycle starts clean.
// Resetting the whole ring, rather than evicting one slot at a time, is
// what keeps a wheel's Total() from double-counting data that has already
// been folded into a coarser wheel's rollup. Under RetentionPolicy Keep,
// the completed cycle's slots are archived to Kept() before the reset.
// Absent a wraparound, rotated is false and rollup is the identity element.
func (w *AggregationWheel[P]) Tick() (rollup P, rotated bool) {
	n := w.conf.Capacity
	wrapped := w.head == n-1
	next := (w.head + 1) % n

	if !wrapped {
		w.head = next
		return w.ops.Identity, false
	}

	rollup = w.total
	w.rotationCount++

	if w.conf.Retention == Keep {
		archived := make([]P, n)
		copy(archived, w.slots)
		w.kept = append(w.kept, archived...)
	}
	for i := range w.slots {
		w.slots[i] = w.ops.Identity
		w.occupied[i] = false
	}
	if w.conf.Layout == Prefix {
		for i := range w.prefix {
			w.prefix[i] = w.ops.Identity
		}
	}
	w.total = w.ops.Identity
	w.head = next

	return rollup, true
}

// rebuildPrefixFrom recomputes the prefix array starting at the changed
// slot. O(n) worst case; acceptable because Prefix trades insert cost for
// O(1) aggregate().
func (w *AggregationWheel[P]) rebuildPrefixFrom(from int) {
	n := w.conf.Capacity
	acc := w.ops.Identity
	if from > 0 {
		acc = w.prefix[from-1]
	}
	for i := from; i < n; i++ {
		acc = w.ops.Combine(acc, w.slots[i])
		w.prefix[i] = acc
	}
}

// Aggregate returns the combination of the last `n` slots ending at head
// (inclusive), oldest first.
func (w *AggregationWheel[P]) Aggregate(n int) P {
	return w.AggregateEndingAt(0, n)
}

// AggregateEndingAt returns the combination of the `n` slots ending
// `ticksAgo` positions behind head (inclusive), oldest first. Used by the
// planner's executor to aggregate a sub-range that does not necessarily
// end at the wheel's current head.
//
// Under RetentionPolicy Keep, a window reaching further back than the
// current, still-filling cycle is served from Kept()'s archived cycles
// instead of the live ring alone — otherwise a query straddling a
// rotation boundary would silently read the post-reset zeroes a Keep
// wheel promises not to have discarded.
func (w *AggregationWheel[P]) AggregateEndingAt(ticksAgo, n int) P {
	if n <= 0 {
		return w.ops.Identity
	}
	if w.conf.Retention == Keep {
		return w.aggregateFromHistory(ticksAgo, n)
	}
	cap := w.conf.Capacity
	if n > cap {
		n = cap
	}
	end := w.indexBehindHead(ticksAgo)
	if w.conf.Layout == Prefix && w.ops.Inverse != nil {
		return w.aggregatePrefix(end, n)
	}
	return w.aggregateScan(end, n)
}

// history returns every slot this wheel has ever held, oldest first:
// Kept()'s archived cycles followed by the current cycle's slots written
// so far (including the in-flight head slot, not yet ticked away).
func (w *AggregationWheel[P]) history() []P {
	cur := make([]P, w.head+1)
	copy(cur, w.slots[:w.head+1])
	out := make([]P, 0, len(w.kept)+len(cur))
	out = append(out, w.kept...)
	out = append(out, cur...)
	return out
}

// aggregateFromHistory serves an AggregateEndingAt query against the full
// retained history rather than the live ring alone, for Keep-retained
// wheels. A window position older than anything retained contributes the
// identity element, the same "touches no data" convention the ring-only
// path uses.
func (w *AggregationWheel[P]) aggregateFromHistory(ticksAgo, n int) P {
	hist := w.history()
	end := len(hist) - 1 - ticksAgo
	acc := w.ops.Identity
	for i := end - n + 1; i <= end; i++ {
		if i < 0 || i >= len(hist) {
			continue
		}
		acc = w.ops.Combine(acc, hist[i])
	}
	return acc
}

func (w *AggregationWheel[P]) aggregateScan(end, n int) P {
	acc := w.ops.Identity
	cap := w.conf.Capacity
	start := ((end-n+1)%cap + cap) % cap
	idx := start
	for i := 0; i < n; i++ {
		if w.occupied[idx] {
			acc = w.ops.Combine(acc, w.slots[idx])
		}
		idx = (idx + 1) % cap
	}
	return acc
}

// aggregatePrefix computes the last n slots ending at `end` via
// prefix[end] minus prefix[start-1], in O(1) combine-inverse calls,
// handling ring wraparound by falling back to a scan (the prefix array is
// only contiguous within the current unwrapped layout).
func (w *AggregationWheel[P]) aggregatePrefix(end, n int) P {
	cap := w.conf.Capacity
	start := ((end-n+1)%cap + cap) % cap
	if start > end {
		// range wraps past index 0; prefix subtraction does not apply
		// directly across the wraparound boundary.
		return w.aggregateScan(end, n)
	}
	head := w.prefix[end]
	if start == 0 {
		return head
	}
	before := w.prefix[start-1]
	return w.ops.Inverse(head, before)
}

// MergeWith combines another wheel of identical capacity and alignment
// (same head position and rotation count) into w slot-by-slot. Returns an
// error if the two wheels are not aligned — merging wheels from instances
// with different watermarks or configurations would silently produce a
// meaningless result.
func (w *AggregationWheel[P]) MergeWith(other *AggregationWheel[P]) error {
	if w.conf.Capacity != other.conf.Capacity {
		return fmt.Errorf("wheel: cannot merge wheels of differing capacity (%d vs %d)", w.conf.Capacity, other.conf.Capacity)
	}
	if w.head != other.head || w.rotationCount != other.rotationCount {
		return fmt.Errorf("wheel: cannot merge misaligned wheels (head %d/%d, rotations %d/%d)", w.head, other.head, w.rotationCount, other.rotationCount)
	}
	for i := range w.slots {
		if other.occupied[i] {
			w.slots[i] = w.ops.Combine(w.slots[i], other.slots[i])
			w.occupied[i] = true
		}
	}
	w.total = w.ops.Combine(w.total, other.total)
	w.kept = append(w.kept, other.kept...)
	if w.conf.Layout == Prefix {
		w.rebuildPrefixFrom(0)
	}
	return nil
}

// Total returns the combination currently held across all occupied slots,
// maintained incrementally as slots are inserted and reset to the identity
// when a rotation completes.
func (w *AggregationWheel[P]) Total() P { return w.total }

// Kept returns the retained history beyond ring capacity, populated only
// under RetentionPolicy Keep. Oldest first.
func (w *AggregationWheel[P]) Kept() []P { return w.kept }

// Clear resets the wheel to its freshly constructed state.
func (w *AggregationWheel[P]) Clear() {
	for i := range w.slots {
		w.slots[i] = w.ops.Identity
		w.occupied[i] = false
	}
	if w.prefix != nil {
		for i := range w.prefix {
			w.prefix[i] = w.ops.Identity
		}
	}
	w.head = 0
	w.rotationCount = 0
	w.total = w.ops.Identity
	w.kept = nil
}

// SizeSlots reports occupied slot count, used by the top-level size
// estimator (humanize-formatted) to approximate memory footprint.
func (w *AggregationWheel[P]) SizeSlots() int {
	n := 0
	for _, occ := range w.occupied {
		if occ {
			n++
		}
	}
	return n
}
