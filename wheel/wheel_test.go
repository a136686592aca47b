package wheel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sumOps() Ops[uint64] {
	return Ops[uint64]{
		Combine:  func(a, b uint64) uint64 { return a + b },
		Identity: 0,
		Inverse:  func(a, b uint64) uint64 { return a - b },
	}
}

func TestAggregationWheelInsertAndAggregate(t *testing.T) {
	w, err := New(sumOps(), NewConf(1000, 10))
	require.NoError(t, err)

	w.InsertHead(5)
	require.Equal(t, uint64(5), w.Aggregate(1))
	require.Equal(t, uint64(5), w.Total())
}

func TestAggregationWheelTickRollsUpOnlyOnWraparound(t *testing.T) {
	w, err := New(sumOps(), NewConf(1000, 4))
	require.NoError(t, err)

	w.InsertHead(1)
	_, rotated := w.Tick()
	require.False(t, rotated)

	w.InsertHead(2)
	_, rotated = w.Tick()
	require.False(t, rotated)

	w.InsertHead(3)
	_, rotated = w.Tick()
	require.False(t, rotated)

	w.InsertHead(4)
	require.Equal(t, uint64(10), w.Aggregate(4))

	// head is now at the last slot (index 3); this tick wraps it back to 0,
	// which completes a full rotation and resets the ring for the next one.
	rollup, rotated := w.Tick()
	require.True(t, rotated)
	require.Equal(t, uint64(10), rollup)
	require.Equal(t, uint64(1), w.Rotations())
	require.Equal(t, uint64(0), w.Total())
	require.Equal(t, uint64(0), w.Aggregate(4))
}

func TestAggregationWheelPrefixLayoutMatchesScan(t *testing.T) {
	conf := NewConf(1000, 8)
	conf.SetDataLayout(Prefix)
	w, err := New(sumOps(), conf)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		w.InsertHead(uint64(i))
		if i != 5 {
			_, _ = w.Tick()
		}
	}
	require.Equal(t, uint64(15), w.Aggregate(5))
	require.Equal(t, uint64(12), w.Aggregate(3))
}

func TestAggregationWheelPrefixRequiresGroup(t *testing.T) {
	ops := Ops[uint64]{Combine: func(a, b uint64) uint64 { return a + b }, Identity: 0}
	conf := NewConf(1000, 4)
	conf.SetDataLayout(Prefix)
	_, err := New(ops, conf)
	require.ErrorIs(t, err, ErrPrefixRequiresGroup)
}

func TestAggregationWheelRetentionKeep(t *testing.T) {
	conf := NewConf(1000, 2)
	conf.SetRetentionPolicy(Keep)
	w, err := New(sumOps(), conf)
	require.NoError(t, err)

	w.InsertHead(1)
	_, _ = w.Tick()
	w.InsertHead(2)
	_, _ = w.Tick()
	w.InsertHead(3)
	_, _ = w.Tick()

	require.Equal(t, []uint64{1, 2}, w.Kept())

	// A query whose window reaches back past the live ring's one
	// resident cycle (InsertHead(3) is the only tick still in the ring)
	// must be served from the archived cycle, not silently see zeroes.
	require.Equal(t, uint64(6), w.AggregateEndingAt(1, 3))
	require.Equal(t, uint64(6), w.AggregateEndingAt(0, 4))
}

func TestAggregationWheelNonInvertibleResetsOnRotation(t *testing.T) {
	ops := Ops[uint64]{Combine: func(a, b uint64) uint64 { return a + b }, Identity: 0}
	w, err := New(ops, NewConf(1000, 2))
	require.NoError(t, err)

	w.InsertHead(1)
	_, _ = w.Tick()
	w.InsertHead(2)
	require.Equal(t, uint64(3), w.Total())

	// a full rotation resets the ring even without an Inverse fn, since the
	// whole cycle is reset at once rather than evicted slot by slot.
	rollup, rotated := w.Tick()
	require.True(t, rotated)
	require.Equal(t, uint64(3), rollup)
	require.Equal(t, uint64(0), w.Total())
}

func TestMaybeWheelLazyAllocation(t *testing.T) {
	m := NewMaybe(sumOps(), NewConf(1000, 4))
	require.False(t, m.Allocated())

	_, ok := m.Peek()
	require.False(t, ok)

	w, err := m.Get()
	require.NoError(t, err)
	require.True(t, m.Allocated())

	w.InsertHead(7)
	again, err := m.Get()
	require.NoError(t, err)
	require.Equal(t, uint64(7), again.Total())
}
