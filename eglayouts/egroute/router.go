// Package egroute builds connector paths from nodes to relation label hooks.
// A visibility-graph router finds obstacle-free polylines; the connector
// builder drives it and repairs residual pass-through crossings.
package egroute

import (
	"container/heap"

	"github.com/peircelab/eglayout/lib/geo"
)

const (
	// OBSTACLE_PADDING keeps routed paths from hugging obstacle borders.
	OBSTACLE_PADDING = 8.

	// blockEpsilon shrinks obstacles for the blocking test so paths running
	// exactly along a padded border don't count as crossings.
	blockEpsilon = 0.01
)

// Router finds a path from start to end around rectangular obstacles. The
// built-in implementation is VisibilityRouter; an external engine can be
// substituted behind the same contract.
type Router interface {
	Route(start, end *geo.Point, obstacles []*geo.Box) geo.Route
}

// VisibilityRouter routes over a visibility graph spanning the padded corners
// of every obstacle plus the two endpoints, searching it with A*.
type VisibilityRouter struct {
	// Padding is added around each obstacle when generating corner
	// waypoints.
	Padding float64
}

func NewVisibilityRouter() *VisibilityRouter {
	return &VisibilityRouter{Padding: OBSTACLE_PADDING}
}

func (vr *VisibilityRouter) Route(start, end *geo.Point, obstacles []*geo.Box) geo.Route {
	if !segmentBlocked(start, end, obstacles) {
		return geo.Route{start.Copy(), end.Copy()}
	}

	vertices := []*geo.Point{start.Copy(), end.Copy()}
	for _, o := range obstacles {
		vertices = append(vertices, o.Expanded(vr.Padding).Corners()...)
	}

	path := astar(vertices, 0, 1, obstacles)
	if path == nil {
		// disconnected graph; the caller's repair pass takes it from here
		return geo.Route{start.Copy(), end.Copy()}
	}
	return path.Dedup()
}

// segmentBlocked reports whether the straight segment a->b cuts into any
// obstacle. Obstacles are shrunk by an epsilon so border contact is legal.
func segmentBlocked(a, b *geo.Point, obstacles []*geo.Box) bool {
	seg := geo.Segment{Start: a, End: b}
	for _, o := range obstacles {
		shrunk := o.Expanded(-blockEpsilon)
		if shrunk.Width <= 0 || shrunk.Height <= 0 {
			continue
		}
		if shrunk.Contains(a) || shrunk.Contains(b) {
			return true
		}
		if len(shrunk.Intersections(seg)) > 0 {
			return true
		}
	}
	return false
}

// A* over the visibility graph. Vertices are indices into the given slice;
// edges exist between mutually visible vertices and are discovered on demand.
func astar(vertices []*geo.Point, start, goal int, obstacles []*geo.Box) geo.Route {
	dist := make([]float64, len(vertices))
	prev := make([]int, len(vertices))
	closed := make([]bool, len(vertices))
	for i := range dist {
		dist[i] = -1
		prev[i] = -1
	}
	dist[start] = 0

	open := &pointQueue{}
	heap.Init(open)
	heap.Push(open, &queueItem{vertex: start, priority: vertices[start].DistanceTo(vertices[goal])})

	for open.Len() > 0 {
		item := heap.Pop(open).(*queueItem)
		u := item.vertex
		if u == goal {
			break
		}
		if closed[u] {
			continue
		}
		closed[u] = true

		for v := range vertices {
			if v == u || closed[v] {
				continue
			}
			if segmentBlocked(vertices[u], vertices[v], obstacles) {
				continue
			}
			alt := dist[u] + vertices[u].DistanceTo(vertices[v])
			if dist[v] < 0 || alt < dist[v] {
				dist[v] = alt
				prev[v] = u
				heap.Push(open, &queueItem{
					vertex:   v,
					priority: alt + vertices[v].DistanceTo(vertices[goal]),
				})
			}
		}
	}

	if prev[goal] == -1 && goal != start {
		return nil
	}

	var path geo.Route
	for at := goal; at != -1; at = prev[at] {
		path = append(geo.Route{vertices[at].Copy()}, path...)
	}
	return path
}

type queueItem struct {
	vertex   int
	priority float64
}

type pointQueue []*queueItem

func (q pointQueue) Len() int            { return len(q) }
func (q pointQueue) Less(i, j int) bool  { return q[i].priority < q[j].priority }
func (q pointQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pointQueue) Push(x interface{}) { *q = append(*q, x.(*queueItem)) }
func (q *pointQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
