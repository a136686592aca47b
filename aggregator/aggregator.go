// Package aggregator defines the abstract capability the Hierarchical
// Aggregation Wheel is generic over, plus a handful of reference
// implementations.
package aggregator

// Aggregator is the polymorphic contract the wheel hierarchy is generic
// over. Input is the raw event payload, Mutable is the in-construction
// accumulator used by the write-ahead buffer, Partial is the frozen,
// combine-closed monoid element stored in wheel slots, and Aggregate is the
// final lowered result handed back to callers.
type Aggregator[Input, Mutable, Partial, Aggregate any] interface {
	// Lift creates a fresh Mutable accumulator from the first input seen
	// in a write-ahead slot.
	Lift(input Input) Mutable
	// CombineMutable folds an additional input into an existing Mutable
	// accumulator in place.
	CombineMutable(acc *Mutable, input Input)
	// Freeze closes a Mutable accumulator into an immutable Partial.
	Freeze(acc Mutable) Partial
	// Combine merges two partials. Must be associative; commutative is
	// assumed by the planner's Combined/Landmark reduction order but not
	// required for correctness of a single range query.
	Combine(a, b Partial) Partial
	// Lower projects a Partial down to the user-facing Aggregate type.
	Lower(p Partial) Aggregate
	// Identity returns the neutral element of Combine.
	Identity() Partial
}

// Invertible is reported by aggregators whose Partial forms a group, not
// merely a monoid. Its presence unlocks the Prefix-sum data layout and the
// Inverse-Landmark query plan.
type Invertible[Partial any] interface {
	CombineInverse(a, b Partial) Partial
}

// SIMDHinter lets an aggregator advertise that Combine vectorizes well over
// dense runs, nudging the planner to prefer a single scan over a Combined
// plan's per-granularity overhead once the range grows past a threshold.
type SIMDHinter interface {
	SIMDSupport() bool
}

// InverseOf reports whether agg implements the optional Invertible
// capability, returning its inverse-combine function when it does.
func InverseOf[I, M, P, A any](agg Aggregator[I, M, P, A]) (func(a, b P) P, bool) {
	inv, ok := agg.(Invertible[P])
	if !ok {
		return nil, false
	}
	return inv.CombineInverse, true
}

// SIMDSupport reports whether agg advertises vectorizable combine.
func SIMDSupport[I, M, P, A any](agg Aggregator[I, M, P, A]) bool {
	hinter, ok := agg.(SIMDHinter)
	return ok && hinter.SIMDSupport()
}
