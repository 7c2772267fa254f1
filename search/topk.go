package search

import (
	"container/heap"
)

// ranked couples an entry's snapshot position with its score and the fields
// the tie-break order needs.
type ranked struct {
	pos      int // index into the snapshot's entry slice
	score    Score
	frecency int64
	relPath  string
}

// better reports whether a should rank ahead of b. The order is: higher
// total, higher frecency, shorter relative path, lexicographic path.
func better(a, b *ranked) bool {
	if a.score.Total != b.score.Total {
		return a.score.Total > b.score.Total
	}
	if a.frecency != b.frecency {
		return a.frecency > b.frecency
	}
	if len(a.relPath) != len(b.relPath) {
		return len(a.relPath) < len(b.relPath)
	}
	return a.relPath < b.relPath
}

// topK is a bounded min-heap: the root is the worst retained candidate, so a
// newcomer only displaces it when strictly better. Each scoring worker owns
// one; heaps merge after the parallel pass.
type topK struct {
	limit int
	items rankedHeap
}

func newTopK(limit int) *topK {
	return &topK{limit: limit}
}

func (t *topK) offer(r ranked) {
	if t.limit <= 0 {
		return
	}
	if t.items.Len() < t.limit {
		heap.Push(&t.items, r)
		return
	}
	if better(&r, &t.items[0]) {
		t.items[0] = r
		heap.Fix(&t.items, 0)
	}
}

// drain returns the retained candidates, best first.
func (t *topK) drain() []ranked {
	out := make([]ranked, t.items.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.items).(ranked)
	}
	return out
}

// mergeTopK folds several worker heaps into the final best-first slice.
func mergeTopK(limit int, heaps []*topK) []ranked {
	merged := newTopK(limit)
	for _, h := range heaps {
		for _, r := range h.items {
			merged.offer(r)
		}
	}
	return merged.drain()
}

type rankedHeap []ranked

func (h rankedHeap) Len() int { return len(h) }

// Less keeps the worst candidate at the root.
func (h rankedHeap) Less(i, j int) bool { return better(&h[j], &h[i]) }

func (h rankedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedHeap) Push(x any) { *h = append(*h, x.(ranked)) }

func (h *rankedHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
