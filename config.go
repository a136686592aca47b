package haw

import "github.com/frostwheel/haw/wheel"

// Default per-granularity slot capacities, matching the original's fixed
// hierarchy: seconds -> minutes -> hours -> days -> weeks -> years.
const (
	SecondsCapacity = 60
	MinutesCapacity = 60
	HoursCapacity   = 24
	DaysCapacity    = 7
	WeeksCapacity   = 52
	YearsCapacity   = 10
)

// DefaultSIMDThreshold is the default scan-op count above which a Combined
// plan is preferred over a SIMD-hintable aggregator's single-wheel scan.
const DefaultSIMDThreshold = 15000

// WheelConf configures one granularity's AggregationWheel.
type WheelConf struct {
	TickMs    uint64
	Capacity  int
	Layout    wheel.DataLayout
	Retention wheel.RetentionPolicy
}

func defaultWheelConf(tickMs uint64, capacity int) WheelConf {
	return WheelConf{TickMs: tickMs, Capacity: capacity, Layout: wheel.Array, Retention: wheel.Drop}
}

// Heuristics bundles the planner's cost-threshold knobs.
type Heuristics struct {
	SIMDThreshold int64
}

// Optimizer gates the Combined-aggregation plan behind a SIMD-aware cost
// threshold when use_hints is enabled and the aggregator advertises SIMD
// support.
type Optimizer struct {
	UseHints   bool
	Heuristics Heuristics
}

func defaultOptimizer() Optimizer {
	return Optimizer{Heuristics: Heuristics{SIMDThreshold: DefaultSIMDThreshold}}
}

// HawConf is the full configuration for a Haw instance, built via
// functional options — a direct transliteration of the original crate's
// `with_*` builder methods into the idiomatic Go options pattern.
type HawConf struct {
	Watermark uint64

	Seconds WheelConf
	Minutes WheelConf
	Hours   WheelConf
	Days    WheelConf
	Weeks   WheelConf
	Years   WheelConf

	GenerateDeltas bool
	Optimizer      Optimizer

	DeltaSegmentCapacity int
	DeltaSegmentRetain   int

	// WriteAheadCapacity sizes the write-ahead buffer in seconds; it must
	// cover at least the seconds wheel's own capacity for every second in
	// the current rotation to be reachable before it rolls up.
	WriteAheadCapacity int
}

// DefaultHawConf returns the configuration the original's Default impl
// produces: all six granularities at their canonical capacities, Array
// layout, Drop retention, deltas disabled, default optimizer heuristics.
func DefaultHawConf() HawConf {
	return HawConf{
		Seconds:              defaultWheelConf(1000, SecondsCapacity),
		Minutes:              defaultWheelConf(60_000, MinutesCapacity),
		Hours:                defaultWheelConf(3_600_000, HoursCapacity),
		Days:                 defaultWheelConf(86_400_000, DaysCapacity),
		Weeks:                defaultWheelConf(604_800_000, WeeksCapacity),
		Years:                defaultWheelConf(31_536_000_000, YearsCapacity),
		Optimizer:            defaultOptimizer(),
		DeltaSegmentCapacity: 3600,
		DeltaSegmentRetain:   2,
		WriteAheadCapacity:   64,
	}
}

// Option configures a HawConf during construction.
type Option func(*HawConf)

// WithWatermark sets the initial watermark, in milliseconds since epoch.
func WithWatermark(ms uint64) Option {
	return func(c *HawConf) { c.Watermark = ms }
}

// WithSeconds overrides the seconds-granularity wheel configuration.
func WithSeconds(conf WheelConf) Option { return func(c *HawConf) { c.Seconds = conf } }

// WithMinutes overrides the minutes-granularity wheel configuration.
func WithMinutes(conf WheelConf) Option { return func(c *HawConf) { c.Minutes = conf } }

// WithHours overrides the hours-granularity wheel configuration.
func WithHours(conf WheelConf) Option { return func(c *HawConf) { c.Hours = conf } }

// WithDays overrides the days-granularity wheel configuration.
func WithDays(conf WheelConf) Option { return func(c *HawConf) { c.Days = conf } }

// WithWeeks overrides the weeks-granularity wheel configuration.
func WithWeeks(conf WheelConf) Option { return func(c *HawConf) { c.Weeks = conf } }

// WithYears overrides the years-granularity wheel configuration.
func WithYears(conf WheelConf) Option { return func(c *HawConf) { c.Years = conf } }

// WithPrefixSum sets the Prefix data layout on every granularity supplied.
// Construction later refuses this for a non-invertible aggregator.
func WithPrefixSum(grans ...*WheelConf) Option {
	return func(c *HawConf) {
		for _, g := range grans {
			g.Layout = wheel.Prefix
		}
	}
}

// WithRetentionPolicy sets the retention policy on every granularity
// supplied.
func WithRetentionPolicy(policy wheel.RetentionPolicy, grans ...*WheelConf) Option {
	return func(c *HawConf) {
		for _, g := range grans {
			g.Retention = policy
		}
	}
}

// WithDeltas enables the bounded delta log, optionally overriding its
// segment capacity and retained-segment count (0 keeps the default).
func WithDeltas(segmentCapacity, segmentRetain int) Option {
	return func(c *HawConf) {
		c.GenerateDeltas = true
		if segmentCapacity > 0 {
			c.DeltaSegmentCapacity = segmentCapacity
		}
		if segmentRetain > 0 {
			c.DeltaSegmentRetain = segmentRetain
		}
	}
}

// WithOptimizerHints enables the SIMD-threshold gate on Combined plans.
func WithOptimizerHints(simdThreshold int64) Option {
	return func(c *HawConf) {
		c.Optimizer.UseHints = true
		if simdThreshold > 0 {
			c.Optimizer.Heuristics.SIMDThreshold = simdThreshold
		}
	}
}

// WithWriteAheadCapacity overrides the write-ahead buffer's slot count.
func WithWriteAheadCapacity(capacity int) Option {
	return func(c *HawConf) { c.WriteAheadCapacity = capacity }
}

// NewHawConf builds a HawConf starting from DefaultHawConf and applying
// opts in order.
func NewHawConf(opts ...Option) HawConf {
	conf := DefaultHawConf()
	for _, opt := range opts {
		opt(&conf)
	}
	return conf
}
