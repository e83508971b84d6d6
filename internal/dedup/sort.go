package dedup

import (
	"bytes"
	"container/heap"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// orderItems sorts the identity permutation [0, numItems) into
// (bucket bytes, item index) order: dictionary order of the bucket
// bytes, with ties broken by ascending item index so that the first
// item of any duplicate run is always the earliest-seen one, regardless
// of shard read order.
//
// When GOMAXPROCS is above 1 this splits the work into up to GOMAXPROCS
// chunks (never more chunks than items), sorts each chunk concurrently,
// and merges the sorted chunks with a heap, rather than calling
// sort.Slice over the whole array on one goroutine.
func orderItems(numItems uint64, bucketOf func(uint64) []byte) []uint64 {
	order := make([]uint64, numItems)
	for i := range order {
		order[i] = uint64(i)
	}
	if numItems < 2 {
		return order
	}

	less := func(a, b uint64) bool {
		ba, bb := bucketOf(a), bucketOf(b)
		c := bytes.Compare(ba, bb)
		if c != 0 {
			return c < 0
		}
		return a < b
	}

	numChunks := runtime.GOMAXPROCS(0)
	if numChunks < 1 {
		numChunks = 1
	}
	if uint64(numChunks) > numItems {
		numChunks = int(numItems)
	}
	if numChunks <= 1 {
		sort.Slice(order, func(i, j int) bool { return less(order[i], order[j]) })
		return order
	}

	chunkSize := (int(numItems) + numChunks - 1) / numChunks
	chunks := make([][]uint64, 0, numChunks)
	for start := 0; start < int(numItems); start += chunkSize {
		end := start + chunkSize
		if end > int(numItems) {
			end = int(numItems)
		}
		chunks = append(chunks, order[start:end])
	}

	var g errgroup.Group
	for _, chunk := range chunks {
		chunk := chunk
		g.Go(func() error {
			sort.Slice(chunk, func(i, j int) bool { return less(chunk[i], chunk[j]) })
			return nil
		})
	}
	_ = g.Wait() // the sort closures never return an error

	return mergeSortedChunks(chunks, less)
}

// chunkCursor tracks how far merging has consumed one sorted chunk.
type chunkCursor struct {
	chunk []uint64
	pos   int
}

// mergeHeap is a container/heap of chunk cursors ordered by the current
// head element of each chunk.
type mergeHeap struct {
	cursors []*chunkCursor
	less    func(a, b uint64) bool
}

func (h mergeHeap) Len() int { return len(h.cursors) }
func (h mergeHeap) Less(i, j int) bool {
	return h.less(h.cursors[i].chunk[h.cursors[i].pos], h.cursors[j].chunk[h.cursors[j].pos])
}
func (h mergeHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }
func (h *mergeHeap) Push(x any)   { h.cursors = append(h.cursors, x.(*chunkCursor)) }
func (h *mergeHeap) Pop() any {
	old := h.cursors
	n := len(old)
	last := old[n-1]
	h.cursors = old[:n-1]
	return last
}

func mergeSortedChunks(chunks [][]uint64, less func(a, b uint64) bool) []uint64 {
	total := 0
	h := &mergeHeap{less: less}
	for _, c := range chunks {
		total += len(c)
		if len(c) > 0 {
			h.cursors = append(h.cursors, &chunkCursor{chunk: c})
		}
	}
	heap.Init(h)

	out := make([]uint64, 0, total)
	for h.Len() > 0 {
		top := h.cursors[0]
		out = append(out, top.chunk[top.pos])
		top.pos++
		if top.pos >= len(top.chunk) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}
	return out
}
