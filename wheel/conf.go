// Package wheel implements the fixed-capacity ring buffer that backs a
// single granularity of the Hierarchical Aggregation Wheel, plus the lazy
// allocation wrapper ("MaybeWheel") that keeps an unused granularity's
// memory footprint at zero.
package wheel

import "fmt"

// DataLayout picks the storage strategy for a wheel's slots.
type DataLayout int

const (
	// Array stores only the raw slots; aggregate() is an O(n) scan.
	Array DataLayout = iota
	// Prefix additionally maintains a monotone-combined prefix array,
	// trading double storage and O(n) insert recompute for an O(1)
	// aggregate() via combine-inverse subtraction. Requires a group
	// aggregator (see Ops.Inverse).
	Prefix
)

func (d DataLayout) String() string {
	switch d {
	case Prefix:
		return "prefix"
	default:
		return "array"
	}
}

// RetentionPolicy controls what happens to a wheel's slots once a full
// rotation completes and the ring resets for its next cycle.
type RetentionPolicy int

const (
	// Drop discards the completed cycle's slots on reset (default).
	Drop RetentionPolicy = iota
	// Keep archives the completed cycle's slots to a growing backing buffer
	// before the reset, so full sub-cycle history beyond what the upward
	// rollup captures remains queryable.
	Keep
)

func (r RetentionPolicy) String() string {
	switch r {
	case Keep:
		return "keep"
	default:
		return "drop"
	}
}

// Ops is the set of operations an AggregationWheel needs from the
// aggregator it is instantiated over. It decouples the wheel (and the
// planner, and the window manager) from the full four-type-parameter
// Aggregator contract in package aggregator — only the Partial type and its
// monoid (optionally group) operations ever reach this low a level.
type Ops[P any] struct {
	Combine  func(a, b P) P
	Identity P
	// Inverse is nil unless the aggregator is a group. A non-nil Inverse
	// is the precondition for DataLayout == Prefix.
	Inverse func(a, b P) P
}

// Conf configures a single granularity's wheel.
type Conf struct {
	TickMs    uint64
	Capacity  int
	Layout    DataLayout
	Retention RetentionPolicy
	Watermark uint64
}

// NewConf returns the default configuration for a granularity of the given
// tick duration (milliseconds) and slot capacity.
func NewConf(tickMs uint64, capacity int) Conf {
	return Conf{
		TickMs:    tickMs,
		Capacity:  capacity,
		Layout:    Array,
		Retention: Drop,
	}
}

func (c *Conf) SetWatermark(ms uint64)          { c.Watermark = ms }
func (c *Conf) SetDataLayout(l DataLayout)      { c.Layout = l }
func (c *Conf) SetRetentionPolicy(r RetentionPolicy) { c.Retention = r }

// ErrPrefixRequiresGroup is returned when a Prefix layout is requested for
// an aggregator that never advertised an Invertible capability.
var ErrPrefixRequiresGroup = fmt.Errorf("wheel: prefix data layout requires a group (invertible) aggregator")
