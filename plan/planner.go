package plan

import "time"

// Optimizer gates whether a CombinedAggregation plan is worth generating
// when a SIMD-hintable aggregator's scan-only cost is already low.
type Optimizer struct {
	UseHints      bool
	SIMDSupport   bool
	SIMDThreshold int64
}

// DefaultSIMDThreshold matches the original implementation's default.
const DefaultSIMDThreshold = 15000

// Input bundles everything the planner needs to know about the Haw it is
// planning for, without importing package wheel or aggregator (avoiding a
// dependency cycle: the top-level package depends on plan).
type Input struct {
	Range          Range
	Watermark      time.Time
	WheelStart     time.Time
	Invertible     bool
	Optimizer      Optimizer
	LayoutFor      func(Granularity) Layout
}

// Create returns the cheapest ExecutionPlan for in.Range, following the
// original's five-step search: wheel scan, landmark short-circuit, inverse
// landmark (if the aggregator is a group), then combined aggregation.
func Create(in Input) ExecutionPlan {
	best := WheelPlan(NewWheelAggregation(in.Range, in.LayoutFor(in.Range.LowestGranularity())))

	if !in.Range.Start.After(in.WheelStart) && !in.Range.End.Before(in.Watermark) {
		best = LandmarkPlan()
	}

	if best.IsPrefixOrLandmark() || in.Range.Duration() < time.Second*60 {
		return best
	}

	if in.Invertible {
		var gaps []WheelAggregation
		gaps = append(gaps, NewWheelAggregation(Range{Start: in.WheelStart, End: in.Range.Start}, in.LayoutFor(Second)))
		if in.Range.End.Before(in.Watermark) {
			gaps = append(gaps, NewWheelAggregation(Range{Start: in.Range.End, End: in.Watermark}, in.LayoutFor(Second)))
		}
		inverse := InverseLandmarkPlan(gaps)
		best = Cheaper(best, inverse)
	}

	generateCombined := true
	if in.Optimizer.UseHints && in.Optimizer.SIMDSupport {
		threshold := in.Optimizer.SIMDThreshold
		if threshold == 0 {
			threshold = DefaultSIMDThreshold
		}
		generateCombined = best.Cost() > threshold
	}

	if generateCombined {
		ranges := SplitWheelRanges(in.Range)
		combined := CombinedAggregationPlan(ranges, in.LayoutFor)
		best = Cheaper(best, CombinedPlan(combined))
	}

	return best
}
