package algo

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/model"
)

// HeuristicMode selects the lower bound that orders the frontier.
type HeuristicMode string

const (
	// HeuristicGoal estimates the Manhattan distance to the nearest target.
	// It is consistent, so the first target popped is always the closest one.
	HeuristicGoal HeuristicMode = "goal"

	// HeuristicStart estimates the Manhattan distance back to the requester,
	// as the legacy locator did. On obstacle-free grids it behaves like
	// uniform-cost search; around obstacles it can settle on a target that
	// is farther than the nearest reachable one.
	HeuristicStart HeuristicMode = "start"
)

func ParseHeuristic(s string) (HeuristicMode, error) {
	switch m := HeuristicMode(s); m {
	case HeuristicGoal, HeuristicStart:
		return m, nil
	case "":
		return HeuristicGoal, nil
	}
	return "", apperr.Invalid("ParseHeuristic", "unknown heuristic %q", s)
}

// how many pops between context checks
const ctxCheckEvery = 256

const unreached = math.MaxInt

type pqItem struct {
	node int
	dist int
	prio int
	seq  uint64
}

type pq []pqItem

func (p pq) Len() int { return len(p) }
func (p pq) Less(i, j int) bool {
	if p[i].prio != p[j].prio {
		return p[i].prio < p[j].prio
	}
	return p[i].seq < p[j].seq
}
func (p pq) Swap(i, j int) { p[i], p[j] = p[j], p[i] }

func (p *pq) Push(x any) {
	*p = append(*p, x.(pqItem))
}

func (p *pq) Pop() any {
	old := *p
	n := len(old)
	item := old[n-1]
	*p = old[:n-1]
	return item
}

// Finder locates the nearest reachable target cell on a grid. A Finder holds
// no per-query state and is safe for concurrent use.
type Finder struct {
	grid Grid
	mode HeuristicMode
}

type Option func(*Finder)

func WithHeuristic(m HeuristicMode) Option {
	return func(f *Finder) { f.mode = m }
}

func NewFinder(g Grid, opts ...Option) *Finder {
	f := &Finder{grid: g, mode: HeuristicGoal}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Finder) Grid() Grid { return f.grid }

func (f *Finder) Heuristic() HeuristicMode { return f.mode }

// Find returns the cheapest path from start to any member of targets that
// never crosses a reserved cell, unless that cell is itself a target.
// The boolean is false when no target is reachable; that is not an error.
// Errors are returned only for an out-of-bounds start or an expired ctx.
func (f *Finder) Find(ctx context.Context, start model.Cell, targets, reserved []model.Cell) (model.SearchResult, bool, error) {
	g := f.grid
	if g.Rows <= 0 || g.Cols <= 0 {
		return model.SearchResult{}, false, apperr.Invalid("Find", "grid dimensions must be positive, got %dx%d", g.Rows, g.Cols)
	}
	if !g.Contains(start) {
		return model.SearchResult{}, false, apperr.Invalid("Find", "start (%d,%d) outside %dx%d grid", start.Row, start.Col, g.Rows, g.Cols)
	}

	goals := make(map[model.Cell]struct{}, len(targets))
	goalList := make([]model.Cell, 0, len(targets))
	for _, t := range targets {
		if !g.Contains(t) {
			continue
		}
		if _, dup := goals[t]; !dup {
			goals[t] = struct{}{}
			goalList = append(goalList, t)
		}
	}
	if len(goals) == 0 {
		return model.SearchResult{}, false, nil
	}

	// targets stay passable even when occupied
	blocked := make(map[model.Cell]struct{}, len(reserved))
	for _, r := range reserved {
		if _, isGoal := goals[r]; !isGoal {
			blocked[r] = struct{}{}
		}
	}

	h := f.heuristic(start, goalList)

	dist := make([]int, g.Size())
	prev := make([]int, g.Size())
	for i := range dist {
		dist[i] = unreached
		prev[i] = -1
	}

	src := g.index(start)
	dist[src] = 0

	frontier := &pq{}
	var seq uint64
	heap.Push(frontier, pqItem{node: src, dist: 0, prio: h(start), seq: seq})

	explored := 0
	var buf [4]model.Cell

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(pqItem)
		if cur.dist > dist[cur.node] {
			continue
		}

		u := g.cell(cur.node)
		if _, ok := goals[u]; ok {
			path := reconstruct(g, prev, src, cur.node)
			return model.SearchResult{Path: path, Distance: cur.dist, Explored: explored}, true, nil
		}

		explored++
		if explored%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return model.SearchResult{}, false, fmt.Errorf("find interrupted after %d cells: %w", explored, err)
			}
		}

		for _, v := range g.Neighbors(u, buf[:0]) {
			if _, ok := blocked[v]; ok {
				continue
			}
			vi := g.index(v)
			nd := cur.dist + 1
			if nd < dist[vi] {
				dist[vi] = nd
				prev[vi] = cur.node
				seq++
				heap.Push(frontier, pqItem{node: vi, dist: nd, prio: nd + h(v), seq: seq})
			}
		}
	}

	return model.SearchResult{Explored: explored}, false, nil
}

func (f *Finder) heuristic(start model.Cell, goals []model.Cell) func(model.Cell) int {
	if f.mode == HeuristicStart {
		return func(c model.Cell) int { return manhattan(c, start) }
	}
	return func(c model.Cell) int {
		best := unreached
		for _, t := range goals {
			if d := manhattan(c, t); d < best {
				best = d
			}
		}
		return best
	}
}

func reconstruct(g Grid, prev []int, src, dst int) []model.Cell {
	path := []model.Cell{}
	cur := dst

	for cur != src {
		path = append(path, g.cell(cur))
		cur = prev[cur]
	}
	path = append(path, g.cell(src))

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}
