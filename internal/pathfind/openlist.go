package pathfind

import "github.com/talgya/caravans/internal/world"

// Node states within one search.
const (
	unvisited uint8 = iota
	open
	closed
)

// nodeRecord is the reusable per-cell bookkeeping of a search. A record whose
// searchID differs from the finder's current one is treated as unvisited.
type nodeRecord struct {
	node     world.Coord
	from     world.Coord // Predecessor, NullCoord at the start
	cost     float64     // Cost so far
	estimate float64     // cost + heuristic, the heap key
	state    uint8
	searchID uint32
	index    int // Position in the open list, -1 when not queued
}

// openList implements heap.Interface as a min-heap on estimate.
type openList []*nodeRecord

func (h openList) Len() int { return len(h) }

func (h openList) Less(i, j int) bool {
	return h[i].estimate < h[j].estimate
}

func (h openList) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *openList) Push(x any) {
	r := x.(*nodeRecord)
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *openList) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}
