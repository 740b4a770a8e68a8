// Package router finds the fastest route between two road intersections.
package router

import (
	"container/heap"

	"github.com/amolgorithm/delivery-deluxe/game/citymap"
)

// RoadNetwork is the view of the city the router needs.
type RoadNetwork interface {
	IntersectionSize() (rows, cols int)
	SpeedLimitAt(row, col int) (float64, bool)
}

// Route is a shortest-time path. Cost is the sum over every step of
// 1 / speed limit of the intersection entered.
type Route struct {
	Path []citymap.Cell `json:"path"`
	Cost float64        `json:"cost"`
}

// Found reports whether the route reaches its goal.
func (r Route) Found() bool {
	return len(r.Path) > 0
}

// Router runs Dijkstra over a road network.
type Router struct {
	network RoadNetwork
}

// New returns a router over network.
func New(network RoadNetwork) *Router {
	return &Router{network: network}
}

var steps = [4]citymap.Cell{
	{Row: 0, Col: 1},
	{Row: 0, Col: -1},
	{Row: 1, Col: 0},
	{Row: -1, Col: 0},
}

// ShortestTimePath returns the minimum-cost path from start to goal, both
// ends included. The path is empty when the goal cannot be reached or
// either endpoint is not a known intersection.
func (r *Router) ShortestTimePath(start, goal citymap.Cell) Route {
	if !r.routable(start) || !r.routable(goal) {
		return Route{}
	}
	if start == goal {
		return Route{Path: []citymap.Cell{start}}
	}

	rows, cols := r.network.IntersectionSize()
	best := make([]float64, rows*cols)
	settled := make(map[citymap.Cell]struct{}, rows*cols)
	seq := 0

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{cell: start})

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if _, done := settled[current.cell]; done {
			continue
		}
		settled[current.cell] = struct{}{}

		if current.cell == goal {
			return Route{Path: current.path(), Cost: current.cost}
		}

		for _, d := range steps {
			next := current.cell.Add(d.Row, d.Col)
			if _, done := settled[next]; done {
				continue
			}
			limit, ok := r.network.SpeedLimitAt(next.Row, next.Col)
			if !ok {
				continue
			}

			cost := current.cost + 1/limit
			idx := next.Row*cols + next.Col
			if b := best[idx]; b != 0 && b <= cost {
				continue
			}
			best[idx] = cost

			seq++
			heap.Push(open, &node{cell: next, parent: current, cost: cost, seq: seq})
		}
	}

	return Route{}
}

func (r *Router) routable(c citymap.Cell) bool {
	_, ok := r.network.SpeedLimitAt(c.Row, c.Col)
	return ok
}

// node is a search-tree entry; parent pointers rebuild the path.
type node struct {
	cell   citymap.Cell
	parent *node
	cost   float64
	seq    int
}

func (n *node) path() []citymap.Cell {
	var out []citymap.Cell
	for p := n; p != nil; p = p.parent {
		out = append(out, p.cell)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// nodeHeap is a min-heap on cost; insertion order breaks ties.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].cost == h[j].cost {
		return h[i].seq < h[j].seq
	}
	return h[i].cost < h[j].cost
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	*h = append(*h, x.(*node))
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
