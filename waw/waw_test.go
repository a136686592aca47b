package waw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sumOps() Ops[uint64, uint64] {
	return Ops[uint64, uint64]{
		Lift:           func(input uint64) uint64 { return input },
		CombineMutable: func(acc *uint64, input uint64) { *acc += input },
	}
}

func TestBufferTickOnEmptyIsIdempotent(t *testing.T) {
	b := New(sumOps(), 4)
	require.True(t, b.IsEmpty())

	require.Nil(t, b.Tick())
	require.Nil(t, b.Tick())
	require.True(t, b.IsEmpty())
}

func TestBufferWriteAheadAndTick(t *testing.T) {
	b := New(sumOps(), 4)

	require.NoError(t, b.WriteAhead(0, 5))
	require.NoError(t, b.WriteAhead(0, 3))

	got := b.Tick()
	require.NotNil(t, got)
	require.Equal(t, uint64(8), *got)
}

func TestBufferWriteAheadFuture(t *testing.T) {
	b := New(sumOps(), 4)

	require.NoError(t, b.WriteAhead(2, 10))

	require.Nil(t, b.Tick())
	require.Nil(t, b.Tick())
	got := b.Tick()
	require.NotNil(t, got)
	require.Equal(t, uint64(10), *got)
}

func TestBufferOverflow(t *testing.T) {
	b := New(sumOps(), 2)
	require.ErrorIs(t, b.WriteAhead(5, 1), ErrOverflow)
}

func TestBufferCanWriteAhead(t *testing.T) {
	b := New(sumOps(), 2)
	require.True(t, b.CanWriteAhead(1))
	require.False(t, b.CanWriteAhead(3))
}
