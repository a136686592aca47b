package delta

import (
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func hashU64(p *uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, *p)
	return b
}

func TestStatePushSealsAtCapacity(t *testing.T) {
	s := New[uint64](2, 10, hashU64)
	a, b := uint64(1), uint64(2)

	s.Push(ulid.Make(), &a)
	require.Empty(t, s.Sealed())
	require.Len(t, s.Open(), 1)

	s.Push(ulid.Make(), &b)
	require.Len(t, s.Sealed(), 1)
	require.Empty(t, s.Open())
	require.NotZero(t, s.Sealed()[0].Checksum)
}

func TestStateRetainsOnlyRecentSegments(t *testing.T) {
	s := New[uint64](1, 2, hashU64)
	v := uint64(1)
	for i := 0; i < 5; i++ {
		s.Push(ulid.Make(), &v)
	}
	require.Len(t, s.Sealed(), 2)
}

func TestStateFlushSealsPartialSegment(t *testing.T) {
	s := New[uint64](10, 5, hashU64)
	v := uint64(42)
	s.Push(ulid.Make(), &v)
	require.Empty(t, s.Sealed())

	s.Flush(ulid.Make())
	require.Len(t, s.Sealed(), 1)
	require.Len(t, s.Sealed()[0].Deltas, 1)
}

func TestStateHandlesNilDeltas(t *testing.T) {
	s := New[uint64](2, 5, hashU64)
	s.Push(ulid.Make(), nil)
	s.Push(ulid.Make(), nil)
	require.Len(t, s.Sealed(), 1)
	// nil deltas are skipped, so the checksum is that of empty input
	require.Equal(t, xxhash.Sum64(nil), s.Sealed()[0].Checksum)
}

func TestStateLen(t *testing.T) {
	s := New[uint64](2, 5, hashU64)
	v := uint64(1)
	s.Push(ulid.Make(), &v)
	s.Push(ulid.Make(), &v)
	s.Push(ulid.Make(), &v)
	require.Equal(t, 3, s.Len())
}
