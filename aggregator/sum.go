package aggregator

// Uint64Sum sums unsigned event values. Grounded directly in the original
// crate's U64SumAggregator used throughout its own test suite.
type Uint64Sum struct{}

func (Uint64Sum) Lift(input uint64) uint64                 { return input }
func (Uint64Sum) CombineMutable(acc *uint64, input uint64)  { *acc += input }
func (Uint64Sum) Freeze(acc uint64) uint64                  { return acc }
func (Uint64Sum) Combine(a, b uint64) uint64                { return a + b }
func (Uint64Sum) Lower(p uint64) uint64                     { return p }
func (Uint64Sum) Identity() uint64                          { return 0 }
func (Uint64Sum) CombineInverse(a, b uint64) uint64         { return a - b }
func (Uint64Sum) SIMDSupport() bool                         { return true }

var (
	_ Aggregator[uint64, uint64, uint64, uint64] = Uint64Sum{}
	_ Invertible[uint64]                         = Uint64Sum{}
	_ SIMDHinter                                 = Uint64Sum{}
)

// Int64Sum sums signed event values.
type Int64Sum struct{}

func (Int64Sum) Lift(input int64) int64                { return input }
func (Int64Sum) CombineMutable(acc *int64, input int64) { *acc += input }
func (Int64Sum) Freeze(acc int64) int64                 { return acc }
func (Int64Sum) Combine(a, b int64) int64               { return a + b }
func (Int64Sum) Lower(p int64) int64                    { return p }
func (Int64Sum) Identity() int64                        { return 0 }
func (Int64Sum) CombineInverse(a, b int64) int64        { return a - b }
func (Int64Sum) SIMDSupport() bool                      { return true }

var (
	_ Aggregator[int64, int64, int64, int64] = Int64Sum{}
	_ Invertible[int64]                      = Int64Sum{}
)

// Float64Sum sums floating-point event values. Floating-point addition is
// not perfectly associative, so its inverse combine is an approximation the
// same way the wheel's Prefix layout trades exactness for O(1) range scans
// in any floating-point group.
type Float64Sum struct{}

func (Float64Sum) Lift(input float64) float64                  { return input }
func (Float64Sum) CombineMutable(acc *float64, input float64)  { *acc += input }
func (Float64Sum) Freeze(acc float64) float64                  { return acc }
func (Float64Sum) Combine(a, b float64) float64                { return a + b }
func (Float64Sum) Lower(p float64) float64                     { return p }
func (Float64Sum) Identity() float64                           { return 0 }
func (Float64Sum) CombineInverse(a, b float64) float64         { return a - b }

var (
	_ Aggregator[float64, float64, float64, float64] = Float64Sum{}
	_ Invertible[float64]                             = Float64Sum{}
)
