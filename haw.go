package haw

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frostwheel/haw/aggregator"
	"github.com/frostwheel/haw/delta"
	"github.com/frostwheel/haw/plan"
	"github.com/frostwheel/haw/stats"
	"github.com/frostwheel/haw/waw"
	"github.com/frostwheel/haw/wheel"
	"github.com/frostwheel/haw/window"
)

// cascadeGranularities names the five granularities a seconds-wheel rotation rolls
// up through, in order. Years has no further destination: a completed years
// rotation is discarded as terminal.
var cascadeGranularities = [5]string{"minutes", "hours", "days", "weeks", "years"}

// Haw is the read-side Hierarchical Aggregation Wheel: six lazily-allocated
// granularity wheels, a watermark, the tick/cascade engine, and the
// cost-based query planner. It is generic over the same four type
// parameters as aggregator.Aggregator.
type Haw[I, M, P, A any] struct {
	agg aggregator.Aggregator[I, M, P, A]
	ops wheel.Ops[P]

	watermark uint64
	genesis   uint64

	conf            HawConf
	cycleLengthSecs int64

	seconds *wheel.MaybeWheel[P]
	minutes *wheel.MaybeWheel[P]
	hours   *wheel.MaybeWheel[P]
	days    *wheel.MaybeWheel[P]
	weeks   *wheel.MaybeWheel[P]
	years   *wheel.MaybeWheel[P]

	delta        *delta.State[P]
	deltaEntropy *ulid.MonotonicEntropy
	window       *window.Manager[P]

	freq stats.WheelFrequencies

	logger  Logger
	metrics *Metrics
}

// runtimeConf holds construction-time dependencies that are not part of the
// serializable HawConf: a logger, a metrics registerer, and a delta-segment
// hash function. These vary by host process, not by wheel configuration.
type runtimeConf[P any] struct {
	logger     Logger
	registerer prometheus.Registerer
	hashInput  func(*P) []byte
}

// RuntimeOption configures non-serializable, per-process dependencies at
// construction time, kept separate from the functional-options HawConf the
// same way frostdb.DB separates its Option (logger, registerer, storage)
// from a table's on-disk schema config.
type RuntimeOption[P any] func(*runtimeConf[P])

// WithLogger attaches a go-kit logger; window-fire, merge, and
// rejected-insert events are logged through it. Ticks and rotations are not
// logged.
func WithLogger[P any](logger Logger) RuntimeOption[P] {
	return func(c *runtimeConf[P]) { c.logger = logger }
}

// WithRegisterer attaches a Prometheus registerer used to construct this
// instance's Metrics. Omitting it falls back to a private, unexported
// registry — metrics are still recorded, just not exposed to a scrape.
func WithRegisterer[P any](reg prometheus.Registerer) RuntimeOption[P] {
	return func(c *runtimeConf[P]) { c.registerer = reg }
}

// WithDeltaHasher supplies the byte-serialization function the delta log
// uses to checksum sealed segments. Required to get a non-zero checksum
// when HawConf.GenerateDeltas is set; harmless to omit otherwise.
func WithDeltaHasher[P any](hashInput func(*P) []byte) RuntimeOption[P] {
	return func(c *runtimeConf[P]) { c.hashInput = hashInput }
}

// New constructs a Haw for the given aggregator and configuration. Returns
// an error if conf requests a Prefix data layout for a granularity while
// agg does not implement aggregator.Invertible.
func New[I, M, P, A any](agg aggregator.Aggregator[I, M, P, A], conf HawConf, opts ...RuntimeOption[P]) (*Haw[I, M, P, A], error) {
	inverse, invertible := aggregator.InverseOf[I, M, P, A](agg)

	for _, wc := range []WheelConf{conf.Seconds, conf.Minutes, conf.Hours, conf.Days, conf.Weeks, conf.Years} {
		if wc.Layout == wheel.Prefix && !invertible {
			return nil, wheel.ErrPrefixRequiresGroup
		}
	}

	rc := runtimeConf[P]{}
	for _, opt := range opts {
		opt(&rc)
	}

	ops := wheel.Ops[P]{Combine: agg.Combine, Identity: agg.Identity(), Inverse: inverse}

	h := &Haw[I, M, P, A]{
		agg:       agg,
		ops:       ops,
		watermark: conf.Watermark,
		genesis:   conf.Watermark,
		conf:      conf,
		cycleLengthSecs: int64(conf.Seconds.Capacity) * int64(conf.Minutes.Capacity) *
			int64(conf.Hours.Capacity) * int64(conf.Days.Capacity) *
			int64(conf.Weeks.Capacity) * int64(conf.Years.Capacity),

		seconds: wheel.NewMaybe(ops, toWheelConf(conf.Seconds)),
		minutes: wheel.NewMaybe(ops, toWheelConf(conf.Minutes)),
		hours:   wheel.NewMaybe(ops, toWheelConf(conf.Hours)),
		days:    wheel.NewMaybe(ops, toWheelConf(conf.Days)),
		weeks:   wheel.NewMaybe(ops, toWheelConf(conf.Weeks)),
		years:   wheel.NewMaybe(ops, toWheelConf(conf.Years)),

		logger:  rc.logger,
		metrics: NewMetrics(rc.registerer),
	}

	if conf.GenerateDeltas {
		h.deltaEntropy = ulid.Monotonic(rand.Reader, 0)
		h.delta = delta.New[P](conf.DeltaSegmentCapacity, conf.DeltaSegmentRetain, rc.hashInput)
	}

	return h, nil
}

func toWheelConf(wc WheelConf) wheel.Conf {
	return wheel.Conf{TickMs: wc.TickMs, Capacity: wc.Capacity, Layout: wc.Layout, Retention: wc.Retention}
}

// Watermark returns the current event-time frontier, in milliseconds since
// the Unix epoch.
func (h *Haw[I, M, P, A]) Watermark() uint64 { return h.watermark }

// mustWheel forces allocation of a granularity's wheel, used on the
// insertion/cascade path where a rotation is actually producing data for it.
// Construction-time validation guarantees this never returns an error.
func (h *Haw[I, M, P, A]) mustWheel(mw *wheel.MaybeWheel[P]) *wheel.AggregationWheel[P] {
	w, err := mw.Get()
	if err != nil {
		panic(fmt.Sprintf("haw: unreachable wheel allocation failure: %v", err))
	}
	return w
}

// tick advances the wheel hierarchy by exactly one second, cascading any
// completed rotation up through minutes, hours, days, weeks, and years. A
// completed years rotation is discarded: there is no coarser granularity to
// roll it into.
func (h *Haw[I, M, P, A]) tick(partial *P) *window.Fire[P] {
	h.watermark += 1000
	h.metrics.observeTick()

	p := h.agg.Identity()
	if partial != nil {
		p = *partial
	}

	sec := h.mustWheel(h.seconds)
	sec.InsertHead(p)
	rollup, rotated := sec.Tick()
	if rotated {
		h.metrics.observeRotation("seconds")
		h.cascade(rollup, 0)
	}

	if h.delta != nil {
		id := ulid.MustNew(ulid.Timestamp(time.UnixMilli(int64(h.watermark))), h.deltaEntropy)
		h.delta.Push(id, partial)
	}

	var fire *window.Fire[P]
	if h.window != nil {
		fire = h.window.Tick(int64(h.watermark), func(fromMs, toMs int64) P {
			v, _ := h.CombineRange(time.UnixMilli(fromMs), time.UnixMilli(toMs))
			return v
		})
		if fire != nil {
			h.metrics.observeWindowFire()
			if h.logger != nil {
				logDebug(h.logger, "msg", "window fired", "timestamp_ms", fire.TimestampMs)
			}
		}
	}
	return fire
}

// cascade rolls a just-completed rotation's summary into the wheel at
// cascadeGranularities[level]: inserted at the wheel's current head, then
// ticked forward by one slot (a rotation at the level below always means
// exactly one slot's worth of time has passed at this level). Insert before
// tick mirrors tick()'s own seconds-wheel handling, so the slot holding the
// data for "this just-completed period" always ends up one position behind
// head, consistently across all six wheels. The cascade continues if that
// tick itself completes a rotation.
func (h *Haw[I, M, P, A]) cascade(rollup P, level int) {
	if level >= len(cascadeGranularities) {
		return // years rotation discarded: terminal
	}
	w := h.mustWheel(h.wheelAt(level))
	w.InsertSlot(0, rollup)
	next, rotated := w.Tick()
	if rotated {
		h.metrics.observeRotation(cascadeGranularities[level])
		h.cascade(next, level+1)
	}
}

func (h *Haw[I, M, P, A]) wheelAt(level int) *wheel.MaybeWheel[P] {
	switch level {
	case 0:
		return h.minutes
	case 1:
		return h.hours
	case 2:
		return h.days
	case 3:
		return h.weeks
	default:
		return h.years
	}
}

// Advance steps the wheel hierarchy forward by d, feeding one write-ahead
// tick per second into the cascade. If d exceeds a full cycle, all wheels
// are cleared instead — history that old is entirely stale. Returns any
// sliding-window results that fired along the way.
func (h *Haw[I, M, P, A]) Advance(d time.Duration, wab *waw.Buffer[I, M]) []*window.Fire[P] {
	ticks := int64(d / time.Second)
	if ticks <= 0 {
		return nil
	}
	if ticks > h.cycleLengthSecs {
		h.Clear()
		h.watermark += uint64(ticks) * 1000
		return nil
	}

	var fires []*window.Fire[P]
	for i := int64(0); i < ticks; i++ {
		var partial *P
		if m := wab.Tick(); m != nil {
			p := h.agg.Freeze(*m)
			partial = &p
		}
		if fire := h.tick(partial); fire != nil {
			fires = append(fires, fire)
		}
	}
	return fires
}

// AdvanceTo advances to watermarkMs. A regressing watermark is silently
// clamped to zero progress rather than erroring.
func (h *Haw[I, M, P, A]) AdvanceTo(watermarkMs uint64, wab *waw.Buffer[I, M]) []*window.Fire[P] {
	if watermarkMs <= h.watermark {
		return nil
	}
	return h.Advance(time.Duration(watermarkMs-h.watermark)*time.Millisecond, wab)
}

// DeltaAdvance advances using an explicit stream of frozen partials,
// bypassing the write-ahead buffer entirely. Used for replication/recovery
// ingress: a nil entry represents an empty tick.
func (h *Haw[I, M, P, A]) DeltaAdvance(partials []*P) []*window.Fire[P] {
	var fires []*window.Fire[P]
	for _, p := range partials {
		if fire := h.tick(p); fire != nil {
			fires = append(fires, fire)
		}
	}
	return fires
}

// Clear resets every granularity wheel to its freshly-allocated state. Does
// not reset the watermark, delta log, or window manager.
func (h *Haw[I, M, P, A]) Clear() {
	for _, mw := range h.allWheels() {
		if w, ok := mw.Peek(); ok {
			w.Clear()
		}
	}
}

func (h *Haw[I, M, P, A]) allWheels() [6]*wheel.MaybeWheel[P] {
	return [6]*wheel.MaybeWheel[P]{h.seconds, h.minutes, h.hours, h.days, h.weeks, h.years}
}

// layoutFor reports the configured data layout for a planner granularity,
// satisfying plan.Input.LayoutFor without the planner package importing
// HawConf or wheel.DataLayout.
func (h *Haw[I, M, P, A]) layoutFor(g plan.Granularity) plan.Layout {
	var l wheel.DataLayout
	switch g {
	case plan.Second:
		l = h.conf.Seconds.Layout
	case plan.Minute:
		l = h.conf.Minutes.Layout
	case plan.Hour:
		l = h.conf.Hours.Layout
	default:
		l = h.conf.Days.Layout
	}
	if l == wheel.Prefix {
		return plan.PrefixLayout
	}
	return plan.ScanLayout
}

func granularityUnit(g plan.Granularity) time.Duration {
	switch g {
	case plan.Second:
		return time.Second
	case plan.Minute:
		return time.Minute
	case plan.Hour:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

func statsGranularity(g plan.Granularity) stats.Granularity {
	switch g {
	case plan.Second:
		return stats.Seconds
	case plan.Minute:
		return stats.Minutes
	case plan.Hour:
		return stats.Hours
	default:
		return stats.Days
	}
}

func (h *Haw[I, M, P, A]) wheelForGranularity(g plan.Granularity) *wheel.MaybeWheel[P] {
	switch g {
	case plan.Second:
		return h.seconds
	case plan.Minute:
		return h.minutes
	case plan.Hour:
		return h.hours
	default:
		return h.days
	}
}

// aggregateWheelRange executes a single WheelAggregation against the wheel
// for its granularity, without forcing allocation: an unallocated wheel
// (never yet written to) contributes identity, at zero cost, per the lazy
// allocation contract.
func (h *Haw[I, M, P, A]) aggregateWheelRange(wa plan.WheelAggregation) P {
	mw := h.wheelForGranularity(wa.Granularity)
	w, ok := mw.Peek()
	if !ok {
		return h.agg.Identity()
	}
	unit := granularityUnit(wa.Granularity)
	watermarkTime := time.UnixMilli(int64(h.watermark))
	// The slot most recently written (by the tick that produced the
	// current head) holds the interval ending exactly at the watermark,
	// and sits one position behind head — hence the +1.
	ticksAgo := int(watermarkTime.Sub(wa.Range.End)/unit) + 1
	n := int(wa.Aggregation.Slots)
	h.freq.Add(statsGranularity(wa.Granularity), uint64(n))
	return w.AggregateEndingAt(ticksAgo, n)
}

// Landmark returns the combination of every allocated wheel's Total: the
// full aggregate over all retained history, from wheel genesis to the
// current watermark.
func (h *Haw[I, M, P, A]) Landmark() P {
	acc := h.agg.Identity()
	for _, mw := range h.allWheels() {
		if w, ok := mw.Peek(); ok {
			acc = h.ops.Combine(acc, w.Total())
		}
	}
	return acc
}

func (h *Haw[I, M, P, A]) planInput(r plan.Range) plan.Input {
	return plan.Input{
		Range:      r,
		Watermark:  time.UnixMilli(int64(h.watermark)),
		WheelStart: time.UnixMilli(int64(h.genesis)),
		Invertible: h.ops.Inverse != nil,
		Optimizer: plan.Optimizer{
			UseHints:      h.conf.Optimizer.UseHints,
			SIMDSupport:   aggregator.SIMDSupport[I, M, P, A](h.agg),
			SIMDThreshold: h.conf.Optimizer.Heuristics.SIMDThreshold,
		},
		LayoutFor: h.layoutFor,
	}
}

// ExplainCombineRange returns the execution plan combine_range would use
// for [start, end) without executing it.
func (h *Haw[I, M, P, A]) ExplainCombineRange(start, end time.Time) (plan.ExecutionPlan, error) {
	r, err := plan.NewRange(start, end)
	if err != nil {
		return plan.ExecutionPlan{}, err
	}
	return plan.Create(h.planInput(r)), nil
}

func (h *Haw[I, M, P, A]) execute(ep plan.ExecutionPlan) P {
	switch ep.Kind {
	case plan.KindWheelAggregation:
		return h.aggregateWheelRange(ep.WheelAggregation)
	case plan.KindCombinedAggregation:
		acc := h.agg.Identity()
		for _, wa := range ep.CombinedAggregation.Aggregations {
			acc = h.ops.Combine(acc, h.aggregateWheelRange(wa))
		}
		return acc
	case plan.KindLandmarkAggregation:
		return h.Landmark()
	case plan.KindInverseLandmarkAggregation:
		acc := h.Landmark()
		for _, gap := range ep.InverseAggregations {
			acc = h.ops.Inverse(acc, h.aggregateWheelRange(gap))
		}
		return acc
	default:
		return h.agg.Identity()
	}
}

// AnalyzeCombineRange returns combine_range's result alongside the
// planner-estimated combine-operation cost of the plan that produced it.
func (h *Haw[I, M, P, A]) AnalyzeCombineRange(start, end time.Time) (P, int64, error) {
	r, err := plan.NewRange(start, end)
	if err != nil {
		return h.agg.Identity(), 0, err
	}
	ep := plan.Create(h.planInput(r))
	return h.execute(ep), ep.Cost(), nil
}

// CombineRange returns the combined partial aggregate over [start, end),
// choosing the cheapest execution strategy the planner finds. A range that
// touches no populated wheel yields the aggregator's identity, not an
// error: only a malformed range (end not after start) is an error.
func (h *Haw[I, M, P, A]) CombineRange(start, end time.Time) (P, error) {
	started := time.Now()
	r, err := plan.NewRange(start, end)
	if err != nil {
		return h.agg.Identity(), err
	}
	ep := plan.Create(h.planInput(r))
	result := h.execute(ep)
	h.metrics.observeCombineRange(ep.Kind.String(), time.Since(started).Seconds(), ep.Cost())
	return result, nil
}

// CombineRangeAndLower is CombineRange followed by Lower, returning the
// user-facing Aggregate type directly.
func (h *Haw[I, M, P, A]) CombineRangeAndLower(start, end time.Time) (A, error) {
	p, err := h.CombineRange(start, end)
	if err != nil {
		var zero A
		return zero, err
	}
	return h.agg.Lower(p), nil
}

// Interval returns the combined aggregate over the last d of retained
// history, ending at the current watermark.
func (h *Haw[I, M, P, A]) Interval(d time.Duration) (P, error) {
	end := time.UnixMilli(int64(h.watermark))
	return h.CombineRange(end.Add(-d), end)
}

// Window installs a sliding window of the given range and slide, replacing
// any previously installed window. Subsequent ticks feed its pair-based
// decomposition; fires surface from Advance/AdvanceTo/DeltaAdvance.
func (h *Haw[I, M, P, A]) Window(rng, slide time.Duration) error {
	mgr, err := window.NewManager[P](window.Ops[P]{Combine: h.ops.Combine, Identity: h.ops.Identity}, rng, slide, int64(h.watermark))
	if err != nil {
		return err
	}
	h.window = mgr
	return nil
}

// Merge combines another Haw's wheel contents into h, wheel by wheel. Both
// instances must share the same watermark: merging wheels with different
// histories is a caller error, since the wheel rings at different
// watermarks are not aligned slot-for-slot.
func (h *Haw[I, M, P, A]) Merge(other *Haw[I, M, P, A]) error {
	if h.watermark != other.watermark {
		return fmt.Errorf("haw: cannot merge instances at differing watermarks (%d vs %d)", h.watermark, other.watermark)
	}
	otherWheels := other.allWheels()
	for i, mw := range h.allWheels() {
		ow, ok := otherWheels[i].Peek()
		if !ok {
			continue
		}
		w := h.mustWheel(mw)
		if err := w.MergeWith(ow); err != nil {
			return err
		}
	}
	if h.logger != nil {
		logInfo(h.logger, "msg", "merged wheel hierarchy", "watermark_ms", h.watermark)
	}
	return nil
}

// ApproxSize returns a human-readable estimate of the occupied-slot
// footprint across every allocated granularity wheel.
func (h *Haw[I, M, P, A]) ApproxSize() string {
	var slots uint64
	for _, mw := range h.allWheels() {
		if w, ok := mw.Peek(); ok {
			slots += uint64(w.SizeSlots())
		}
	}
	return humanize.Comma(int64(slots)) + " occupied slots"
}

// Frequencies exposes the per-granularity access-frequency table for
// outlier detection, e.g. to retune retention/layout choices.
func (h *Haw[I, M, P, A]) Frequencies() *stats.WheelFrequencies { return &h.freq }
