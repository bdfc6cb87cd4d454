// Package pathfind implements A* search over the world grid.
package pathfind

import (
	"container/heap"
	"fmt"
	"slices"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/talgya/caravans/internal/world"
)

// World is the grid the finder searches. The finder only reads it.
type World interface {
	IsAccessible(x, y int) bool
	// MovementSpeedMultiplier must be in (0, 1] on accessible cells for the
	// search to return shortest paths. See CheckAdmissible.
	MovementSpeedMultiplier(x, y int) float64
}

// Path is a route excluding its start cell and ending at the reached goal.
type Path []world.Coord

// Len returns the number of steps.
func (p Path) Len() int {
	return len(p)
}

// timeCheckMask makes the time-limited search poll the clock every 16 expansions.
const timeCheckMask = 0b1111

// Finder runs A* searches on one world. It keeps its node records between
// searches and is not safe for concurrent use.
type Finder struct {
	width, height int
	world         World

	records  []*nodeRecord
	open     openList
	searchID uint32
}

// NewFinder creates a finder for a width x height grid.
func NewFinder(width, height int, w World) *Finder {
	return &Finder{
		width:   width,
		height:  height,
		world:   w,
		records: make([]*nodeRecord, width*height),
	}
}

// FindPath returns the cheapest path from from to any cell of ends. An empty
// ends means just to. The second result is false when no end is reachable.
func (f *Finder) FindPath(from, to world.Coord, ends []world.Coord) (Path, bool) {
	return f.search(from, to, ends, nil)
}

// FindPathInTimeLimit is FindPath that gives up once limit has elapsed.
func (f *Finder) FindPathInTimeLimit(from, to world.Coord, ends []world.Coord, limit time.Duration) (Path, bool) {
	deadline := time.Now().Add(limit)
	return f.search(from, to, ends, func(expanded int, _ *nodeRecord) bool {
		return expanded&timeCheckMask == 0 && !time.Now().Before(deadline)
	})
}

// FindPathWithMaxComplexity is FindPath that gives up once it expands a node
// whose cost exceeds the manhattan distance from from to to times factor.
func (f *Finder) FindPathWithMaxComplexity(from, to world.Coord, ends []world.Coord, factor float64) (Path, bool) {
	maxCost := float64(from.Manhattan(to)) * factor
	return f.search(from, to, ends, func(_ int, current *nodeRecord) bool {
		return current.cost > maxCost
	})
}

func (f *Finder) search(from, to world.Coord, ends []world.Coord, abort func(expanded int, current *nodeRecord) bool) (Path, bool) {
	if !f.inGrid(from.X(), from.Y()) {
		return nil, false
	}
	if len(ends) == 0 {
		ends = []world.Coord{to}
	}

	f.initSearch(from, to)
	expanded := 0
	for f.open.Len() > 0 {
		current := heap.Pop(&f.open).(*nodeRecord)
		current.state = closed

		if slices.Contains(ends, current.node) {
			return f.buildPath(current), true
		}

		expanded++
		if abort != nil && abort(expanded, current) {
			return nil, false
		}

		f.visitChildren(current, to)
	}
	return nil, false
}

func (f *Finder) initSearch(from, to world.Coord) {
	f.searchID++
	if f.searchID == 0 {
		// Stamp wrapped; old records could alias the new search.
		clear(f.records)
		f.searchID = 1
	}
	clear(f.open)
	f.open = f.open[:0]

	start := f.record(from)
	start.from = world.NullCoord
	start.cost = 0
	f.push(start, float64(from.Manhattan(to)))
}

func (f *Finder) visitChildren(current *nodeRecord, to world.Coord) {
	x, y := current.node.X(), current.node.Y()
	stepCost := 1 / f.world.MovementSpeedMultiplier(x, y)

	for _, d := range world.Directions {
		nx, ny := x+d.X(), y+d.Y()
		if !f.inGrid(nx, ny) || !f.world.IsAccessible(nx, ny) {
			continue
		}

		cost := current.cost + stepCost
		r := f.record(world.MakeCoord(nx, ny))
		switch r.state {
		case closed:
			if r.cost <= cost {
				continue
			}
			// Reuse the cached heuristic.
			heuristic := r.estimate - r.cost
			r.cost = cost
			r.from = current.node
			f.push(r, cost+heuristic)
		case open:
			if r.cost <= cost {
				continue
			}
			heuristic := r.estimate - r.cost
			r.cost = cost
			r.from = current.node
			r.estimate = cost + heuristic
			heap.Fix(&f.open, r.index)
		default:
			r.cost = cost
			r.from = current.node
			f.push(r, cost+float64(r.node.Manhattan(to)))
		}
	}
}

func (f *Finder) push(r *nodeRecord, estimate float64) {
	r.estimate = estimate
	r.state = open
	heap.Push(&f.open, r)
}

// record returns the node record of c, resetting it if it belongs to an
// earlier search.
func (f *Finder) record(c world.Coord) *nodeRecord {
	i := c.X() + c.Y()*f.width
	r := f.records[i]
	if r == nil {
		r = &nodeRecord{node: c, index: -1}
		f.records[i] = r
	}
	if r.searchID != f.searchID {
		r.searchID = f.searchID
		r.state = unvisited
		r.index = -1
	}
	return r
}

func (f *Finder) buildPath(end *nodeRecord) Path {
	var path Path
	for r := end; r.from != world.NullCoord; r = f.records[r.from.X()+r.from.Y()*f.width] {
		path = append(path, r.node)
	}
	slices.Reverse(path)
	return path
}

func (f *Finder) inGrid(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.width && y < f.height
}

// maxReported caps the cells listed by CheckAdmissible.
const maxReported = 8

// CheckAdmissible verifies that every accessible cell of w has a movement
// speed multiplier in (0, 1], the range for which the manhattan heuristic
// never overestimates. It reports violations and changes nothing.
func CheckAdmissible(w World, width, height int) error {
	el := errors.NewErrorList()
	bad := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !w.IsAccessible(x, y) {
				continue
			}
			m := w.MovementSpeedMultiplier(x, y)
			if m > 0 && m <= 1 {
				continue
			}
			bad++
			if bad <= maxReported {
				el.Add(fmt.Errorf("cell %d,%d: movement speed multiplier %v outside (0, 1]", x, y, m))
			}
		}
	}
	if bad > maxReported {
		el.Add(fmt.Errorf("%d more cells with inadmissible speed", bad-maxReported))
	}
	return el.Err()
}
