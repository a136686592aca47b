package haw

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostwheel/haw/aggregator"
	"github.com/frostwheel/haw/waw"
	"github.com/frostwheel/haw/window"
)

// RwWheel is the module's top-level embeddable type: a writer view (the
// write-ahead buffer) paired with the read-side Haw, grounded directly in
// the original crate's WheelDB<A> (a caller-supplied id plus a wrapped
// RwWheel) and in frostdb's ColumnStore/DB, which similarly bundle a
// registerer-scoped, lazily-built child under one embeddable handle.
type RwWheel[I, M, P, A any] struct {
	id uuid.UUID

	wab *waw.Buffer[I, M]
	haw *Haw[I, M, P, A]

	logger  Logger
	metrics *Metrics
}

// NewRwWheel constructs an RwWheel: its write-ahead buffer (sized from
// conf.WriteAheadCapacity) and its Haw (per conf and opts).
func NewRwWheel[I, M, P, A any](agg aggregator.Aggregator[I, M, P, A], conf HawConf, opts ...RuntimeOption[P]) (*RwWheel[I, M, P, A], error) {
	h, err := New[I, M, P, A](agg, conf, opts...)
	if err != nil {
		return nil, err
	}
	wabOps := waw.Ops[I, M]{Lift: agg.Lift, CombineMutable: agg.CombineMutable}
	return &RwWheel[I, M, P, A]{
		id:      uuid.New(),
		wab:     waw.New[I, M](wabOps, conf.WriteAheadCapacity),
		haw:     h,
		logger:  h.logger,
		metrics: h.metrics,
	}, nil
}

// ID returns this instance's generated identifier.
func (r *RwWheel[I, M, P, A]) ID() uuid.UUID { return r.id }

// Read returns the read-side Haw, the same split the original's
// WheelDB.read() / RwWheel<A, Lazy>.read() expose: a read-only handle
// distinct from the writer that owns the write-ahead buffer.
func (r *RwWheel[I, M, P, A]) Read() *Haw[I, M, P, A] { return r.haw }

// Insert places entry into the write-ahead buffer, rejecting it with
// LateError if its timestamp precedes the watermark, or OverflowError if it
// is too far in the future for the buffer to hold uncommitted.
func (r *RwWheel[I, M, P, A]) Insert(entry Entry[I]) error {
	watermark := r.haw.Watermark()
	if entry.TimestampMs < watermark {
		r.metrics.observeLate()
		if r.logger != nil {
			logWarn(r.logger, "msg", "rejected late insert", "timestamp_ms", entry.TimestampMs, "watermark_ms", watermark)
		}
		return &LateError[I]{Entry: entry, Watermark: watermark}
	}

	addend := (entry.TimestampMs - watermark) / 1000
	if err := r.wab.WriteAhead(addend, entry.Data); err != nil {
		maxTs := watermark + uint64(r.wab.Capacity())*1000
		r.metrics.observeOverflow()
		if r.logger != nil {
			logWarn(r.logger, "msg", "rejected overflowing insert", "timestamp_ms", entry.TimestampMs, "max_write_ahead_ts", maxTs)
		}
		return &OverflowError[I]{Entry: entry, MaxWriteAheadTs: maxTs}
	}
	return nil
}

// Advance steps the wheel hierarchy forward by d, draining the write-ahead
// buffer one tick at a time, and returns any sliding-window fires.
func (r *RwWheel[I, M, P, A]) Advance(d time.Duration) []*window.Fire[P] {
	return r.haw.Advance(d, r.wab)
}

// AdvanceTo advances to watermarkMs, draining the write-ahead buffer.
func (r *RwWheel[I, M, P, A]) AdvanceTo(watermarkMs uint64) []*window.Fire[P] {
	return r.haw.AdvanceTo(watermarkMs, r.wab)
}

// Watermark returns the current event-time frontier.
func (r *RwWheel[I, M, P, A]) Watermark() uint64 { return r.haw.Watermark() }
