package plan

// Layout mirrors wheel.DataLayout without importing package wheel, so the
// planner can reason about cost without depending on the wheel's generic
// Partial type.
type Layout int

const (
	ScanLayout Layout = iota
	PrefixLayout
)

// Aggregation is the cost model for a single wheel access: either a Scan of
// N slots (cost N) or a Prefix-layout O(1) lookup (cost 1).
type Aggregation struct {
	Layout Layout
	Slots  int64
}

// Cost returns the number of combine operations this aggregation requires.
func (a Aggregation) Cost() int64 {
	if a.Layout == PrefixLayout {
		return 1
	}
	return a.Slots
}

// WheelAggregation pairs a Range with the Aggregation cost model for the
// wheel that would service it.
type WheelAggregation struct {
	Range       Range
	Granularity Granularity
	Aggregation Aggregation
}

// NewWheelAggregation builds a WheelAggregation for r, using layout to
// determine the cost model.
func NewWheelAggregation(r Range, layout Layout) WheelAggregation {
	g := r.LowestGranularity()
	return WheelAggregation{
		Range:       r,
		Granularity: g,
		Aggregation: Aggregation{Layout: layout, Slots: r.ScanEstimation()},
	}
}

func (w WheelAggregation) Cost() int64 { return w.Aggregation.Cost() }

// CombinedAggregation is a sequence of WheelAggregations, sorted by
// ascending granularity score, whose results are folded together with
// Combine (short-circuiting a missing partial to the aggregator's
// identity).
type CombinedAggregation struct {
	Aggregations []WheelAggregation
}

func (c CombinedAggregation) Cost() int64 {
	var total int64
	for _, agg := range c.Aggregations {
		total += agg.Cost()
	}
	return total
}

// landmarkCost is the fixed cost of combining the six granularity totals.
const landmarkCost = 5

// Kind tags which of the four execution strategies an ExecutionPlan holds.
type Kind int

const (
	KindWheelAggregation Kind = iota
	KindCombinedAggregation
	KindLandmarkAggregation
	KindInverseLandmarkAggregation
)

func (k Kind) String() string {
	switch k {
	case KindWheelAggregation:
		return "WheelAggregation"
	case KindCombinedAggregation:
		return "CombinedAggregation"
	case KindLandmarkAggregation:
		return "LandmarkAggregation"
	case KindInverseLandmarkAggregation:
		return "InverseLandmarkAggregation"
	default:
		return "unknown"
	}
}

// ExecutionPlan is the closed set of four strategies the planner can
// select, encoded as a tagged union rather than an interface so Cost() is a
// plain switch instead of a virtual call.
type ExecutionPlan struct {
	Kind                Kind
	WheelAggregation    WheelAggregation    // valid when Kind == KindWheelAggregation
	CombinedAggregation CombinedAggregation // valid when Kind == KindCombinedAggregation
	InverseAggregations []WheelAggregation  // valid when Kind == KindInverseLandmarkAggregation
}

func WheelPlan(w WheelAggregation) ExecutionPlan {
	return ExecutionPlan{Kind: KindWheelAggregation, WheelAggregation: w}
}

func CombinedPlan(c CombinedAggregation) ExecutionPlan {
	return ExecutionPlan{Kind: KindCombinedAggregation, CombinedAggregation: c}
}

func LandmarkPlan() ExecutionPlan {
	return ExecutionPlan{Kind: KindLandmarkAggregation}
}

func InverseLandmarkPlan(gaps []WheelAggregation) ExecutionPlan {
	return ExecutionPlan{Kind: KindInverseLandmarkAggregation, InverseAggregations: gaps}
}

// Cost returns the number of combine operations the plan requires.
func (p ExecutionPlan) Cost() int64 {
	switch p.Kind {
	case KindWheelAggregation:
		return p.WheelAggregation.Cost()
	case KindCombinedAggregation:
		return p.CombinedAggregation.Cost()
	case KindLandmarkAggregation:
		return landmarkCost
	case KindInverseLandmarkAggregation:
		total := int64(landmarkCost)
		for _, g := range p.InverseAggregations {
			total += g.Cost()
		}
		return total
	default:
		return 0
	}
}

// IsPrefixOrLandmark reports whether the plan is already O(1), short
// circuiting the planner's search for a cheaper combined plan.
func (p ExecutionPlan) IsPrefixOrLandmark() bool {
	switch p.Kind {
	case KindWheelAggregation:
		return p.WheelAggregation.Aggregation.Layout == PrefixLayout
	case KindLandmarkAggregation:
		return true
	default:
		return false
	}
}

// Cheaper returns whichever of a, b has the lower cost, breaking ties in
// favor of a.
func Cheaper(a, b ExecutionPlan) ExecutionPlan {
	if b.Cost() < a.Cost() {
		return b
	}
	return a
}

// CombinedAggregationPlan builds a CombinedAggregation from a set of
// sub-ranges, sorting the resulting per-range wheel aggregations by
// ascending granularity score so equal-granularity sub-ranges are visited
// together, promoting sequential access to the same wheel.
func CombinedAggregationPlan(ranges []Range, layoutFor func(Granularity) Layout) CombinedAggregation {
	aggs := make([]WheelAggregation, 0, len(ranges))
	for _, r := range ranges {
		g := r.LowestGranularity()
		aggs = append(aggs, NewWheelAggregation(r, layoutFor(g)))
	}
	// insertion sort by granularity score; ranges are already few (at most
	// a handful of sub-ranges per query), so O(n^2) is not a concern.
	for i := 1; i < len(aggs); i++ {
		j := i
		for j > 0 && aggs[j-1].Granularity.granularityScore() > aggs[j].Granularity.granularityScore() {
			aggs[j-1], aggs[j] = aggs[j], aggs[j-1]
			j--
		}
	}
	return CombinedAggregation{Aggregations: aggs}
}
