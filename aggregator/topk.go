package aggregator

import "container/heap"

// TopKInput is a single scored event fed to the TopK aggregator.
type TopKInput struct {
	Key   string
	Score float64
}

// topKHeap is a min-heap over the current top-K candidates, so eviction of
// the weakest entry is O(log k).
type topKHeap []TopKInput

func (h topKHeap) Len() int            { return len(h) }
func (h topKHeap) Less(i, j int) bool  { return h[i].Score < h[j].Score }
func (h topKHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x interface{}) { *h = append(*h, x.(TopKInput)) }
func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// TopKPartial is the frozen result of a TopK accumulation: up to K entries,
// not necessarily sorted, always re-heapable for further combination.
type TopKPartial struct {
	K       int
	Entries []TopKInput
}

// TopK keeps the K highest-scored entries seen. It has no inverse (you
// cannot "subtract" a top-K set to recover what an earlier partial held),
// so it is never eligible for the Prefix layout or Inverse-Landmark plans —
// it exercises the Array/Scan-only code paths of the wheel hierarchy.
type TopK struct {
	K int
}

func (tk TopK) Lift(input TopKInput) TopKPartial {
	return TopKPartial{K: tk.K, Entries: []TopKInput{input}}
}

func (tk TopK) CombineMutable(acc *TopKPartial, input TopKInput) {
	acc.K = tk.K
	h := topKHeap(acc.Entries)
	heap.Init(&h)
	if h.Len() < tk.K {
		heap.Push(&h, input)
	} else if h.Len() > 0 && input.Score > h[0].Score {
		heap.Pop(&h)
		heap.Push(&h, input)
	}
	acc.Entries = h
}

func (tk TopK) Freeze(acc TopKPartial) TopKPartial { return acc }

func (tk TopK) Combine(a, b TopKPartial) TopKPartial {
	k := a.K
	if k == 0 {
		k = b.K
	}
	if k == 0 {
		k = tk.K
	}
	merged := make(topKHeap, 0, len(a.Entries)+len(b.Entries))
	merged = append(merged, a.Entries...)
	merged = append(merged, b.Entries...)
	heap.Init(&merged)
	for merged.Len() > k {
		heap.Pop(&merged)
	}
	return TopKPartial{K: k, Entries: merged}
}

func (tk TopK) Lower(p TopKPartial) []TopKInput {
	out := make([]TopKInput, len(p.Entries))
	copy(out, p.Entries)
	// descending by score for the lowered, user-facing result
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Score > out[i].Score {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func (tk TopK) Identity() TopKPartial {
	return TopKPartial{K: tk.K}
}

var _ Aggregator[TopKInput, TopKPartial, TopKPartial, []TopKInput] = TopK{}
