package aggregator

import "math"

// AllStats bundles the minimum, maximum, sum and count of the inputs seen
// in a partial. It mirrors the "All" aggregator from the original crate:
// one slot buys several downstream statistics, at the cost of not being a
// group (min/max have no inverse), so the planner can never offer this
// aggregator the Prefix layout or an Inverse-Landmark plan.
type AllStats struct {
	Min, Max, Sum float64
	Count         uint64
}

// MinMaxSum is the reference non-invertible aggregator.
type MinMaxSum struct{}

func (MinMaxSum) Lift(input float64) AllStats {
	return AllStats{Min: input, Max: input, Sum: input, Count: 1}
}

func (MinMaxSum) CombineMutable(acc *AllStats, input float64) {
	if input < acc.Min {
		acc.Min = input
	}
	if input > acc.Max {
		acc.Max = input
	}
	acc.Sum += input
	acc.Count++
}

func (MinMaxSum) Freeze(acc AllStats) AllStats { return acc }

func (MinMaxSum) Combine(a, b AllStats) AllStats {
	if a.Count == 0 {
		return b
	}
	if b.Count == 0 {
		return a
	}
	out := AllStats{
		Min:   math.Min(a.Min, b.Min),
		Max:   math.Max(a.Max, b.Max),
		Sum:   a.Sum + b.Sum,
		Count: a.Count + b.Count,
	}
	return out
}

func (MinMaxSum) Lower(p AllStats) AllStats { return p }

func (MinMaxSum) Identity() AllStats {
	return AllStats{Min: math.Inf(1), Max: math.Inf(-1), Sum: 0, Count: 0}
}

// Average is a convenience accessor, not part of the Aggregator contract.
func (s AllStats) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

var _ Aggregator[float64, AllStats, AllStats, AllStats] = MinMaxSum{}
