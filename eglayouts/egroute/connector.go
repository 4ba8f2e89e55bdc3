package egroute

import (
	"context"

	"cdr.dev/slog"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/eglayouts/egplace"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/lib/geo"
	"github.com/peircelab/eglayout/lib/log"
)

const (
	// MAX_REPAIR_ATTEMPTS bounds the heavier-padding re-routes per offending
	// segment: the first repair re-routes with doubled padding, a failed
	// repair retries exactly once more with doubled padding again, then the
	// segment is accepted as-is and flagged.
	MAX_REPAIR_ATTEMPTS = 2

	DETOUR_PADDING = 6.

	// MIN_VISIBLE_LENGTH is the floor on a connector's drawn length; shorter
	// paths get their endpoint extended outward to stay visible.
	MIN_VISIBLE_LENGTH = 12.
)

// Connectors is the routed output: one path per (node, incident relation)
// pair, plus the ids of connectors whose repair gave up on a residual
// crossing.
type Connectors struct {
	Routes  map[string]geo.Route
	Flagged []string
}

type Builder struct {
	router Router
}

// NewBuilder wires the connector builder to a router; pass nil for the
// built-in visibility router.
func NewBuilder(r Router) *Builder {
	if r == nil {
		r = NewVisibilityRouter()
	}
	return &Builder{router: r}
}

// BuildAll routes every connector. Same-area connectors dodge the area's
// child-area rectangles and unrelated labels; cross-area connectors skip
// intervening area obstacles on purpose (crossing a cut boundary is the
// depiction of cross-area reference) but still terminate exactly at the hook.
func (b *Builder) BuildAll(ctx context.Context, g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *egplace.Placement) *Connectors {
	out := &Connectors{Routes: make(map[string]geo.Route)}

	for _, n := range g.Nodes {
		pos := placement.Nodes[n.ID]
		for _, r := range g.Incidences(n.ID) {
			labelBox := placement.Labels[r.ID]
			hook := egplace.HookPoint(labelBox, r.ArgIndex(n.ID), len(r.Args))

			var route geo.Route
			if n.Area == r.Area {
				route = b.routeSameArea(pos, hook, sameAreaObstacles(g, rects, placement, r))
			} else {
				route = routeCrossArea(g, rects, pos, hook, n.Area, r.Area)
			}

			obstacles := labelObstacles(g, placement, r.ID)
			if n.Area == r.Area {
				// repair must keep dodging the child cuts the initial route
				// was steered around
				obstacles = append(obstacles, childRects(g, rects, r.Area)...)
			}
			route, repaired := b.repairPath(route, obstacles, MAX_REPAIR_ATTEMPTS)
			route = ensureVisibleLength(route)

			id := egtarget.ConnectorID(n.ID, r.ID)
			if !repaired {
				out.Flagged = append(out.Flagged, id)
				log.Warn(ctx, "connector kept with residual crossing",
					slog.F("connector", id))
			}
			out.Routes[id] = route
		}
	}

	log.Debug(ctx, "connectors built",
		slog.F("count", len(out.Routes)),
		slog.F("flagged", len(out.Flagged)))
	return out
}

func (b *Builder) routeSameArea(start, end *geo.Point, obstacles []*geo.Box) geo.Route {
	return b.router.Route(start, end, obstacles)
}

// routeCrossArea connects a node to a relation in an ancestor or descendant
// area. The path legally crosses cut boundaries, optionally via an explicit
// waypoint at the boundary intersection nearest the source.
func routeCrossArea(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, start, end *geo.Point, srcArea, dstArea eggraph.AreaID) geo.Route {
	// the deeper of the two areas owns the boundary being crossed
	boundary := dstArea
	if g.Depth(srcArea) > g.Depth(dstArea) {
		boundary = srcArea
	}
	route := geo.Route{start.Copy()}
	if rect := rects[boundary]; rect != nil {
		if waypoint := rect.ClosestIntersection(geo.Segment{Start: start, End: end}); waypoint != nil {
			route = append(route, waypoint)
		}
	}
	return append(route, end.Copy()).Dedup()
}

// sameAreaObstacles returns the padded boxes a same-area connector must
// avoid: every child-area rectangle of the owning area and every other
// relation label in it.
func sameAreaObstacles(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *egplace.Placement, r *eggraph.Relation) []*geo.Box {
	obstacles := childRects(g, rects, r.Area)
	for _, other := range g.RelationsIn(r.Area) {
		if other.ID == r.ID {
			continue
		}
		if box := placement.Labels[other.ID]; box != nil {
			obstacles = append(obstacles, box)
		}
	}
	return obstacles
}

func childRects(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, area eggraph.AreaID) []*geo.Box {
	var boxes []*geo.Box
	for _, c := range g.Area(area).Children {
		if rect := rects[c]; rect != nil {
			boxes = append(boxes, rect)
		}
	}
	return boxes
}

// labelObstacles returns every placed label except the connector's own
// destination; entering and stopping inside that one is the point. Relations
// are walked in id order so repair decisions stay deterministic.
func labelObstacles(g *eggraph.Graph, placement *egplace.Placement, dst eggraph.RelationID) []*geo.Box {
	var obstacles []*geo.Box
	for _, r := range g.Relations {
		if r.ID == dst {
			continue
		}
		if box := placement.Labels[r.ID]; box != nil {
			obstacles = append(obstacles, box)
		}
	}
	return obstacles
}

// passesThrough reports a true pass-through: both segment endpoints outside
// the rectangle while the segment crosses it. Entering and stopping inside is
// legal.
func passesThrough(a, b *geo.Point, rect *geo.Box) bool {
	if rect.Contains(a) || rect.Contains(b) {
		return false
	}
	return len(rect.Intersections(geo.Segment{Start: a, End: b})) >= 2
}

// repairPath re-scans every consecutive point pair for pass-throughs and
// fixes each offender by, in order: re-routing with progressively heavier
// obstacle padding, detouring via a padded corner of the offending rectangle,
// and finally an L-shaped perpendicular detour. A segment none of those can
// fix is kept unchanged; ok reports whether the final path is crossing-free.
func (b *Builder) repairPath(route geo.Route, obstacles []*geo.Box, maxAttempts int) (repairedRoute geo.Route, ok bool) {
	ok = true
	repaired := geo.Route{}
	if len(route) > 0 {
		repaired = append(repaired, route[0])
	}

	for i := 0; i < len(route)-1; i++ {
		a, c := route[i], route[i+1]
		offender := findOffender(a, c, obstacles)
		if offender == nil {
			repaired = append(repaired, c)
			continue
		}

		if fixed := b.rerouteHeavier(a, c, obstacles, maxAttempts); fixed != nil {
			repaired = append(repaired, fixed...)
			continue
		}
		if via := cornerDetour(a, c, offender, obstacles); via != nil {
			repaired = append(repaired, via, c)
			continue
		}
		if via := lDetour(a, c, offender); via != nil {
			repaired = append(repaired, via, c)
			continue
		}

		// give up on this segment
		repaired = append(repaired, c)
		ok = false
	}
	return repaired.Dedup(), ok
}

func findOffender(a, b *geo.Point, obstacles []*geo.Box) *geo.Box {
	for _, o := range obstacles {
		if passesThrough(a, b, o) {
			return o
		}
	}
	return nil
}

// rerouteHeavier retries the router on one segment with doubled padding per
// attempt, returning the replacement points after the segment start, or nil.
func (b *Builder) rerouteHeavier(a, c *geo.Point, obstacles []*geo.Box, maxAttempts int) geo.Route {
	padding := OBSTACLE_PADDING
	for attempt := 0; attempt < maxAttempts; attempt++ {
		padding *= 2
		router := &VisibilityRouter{Padding: padding}
		candidate := router.Route(a, c, obstacles)
		if len(candidate) > 2 && clean(candidate, obstacles) {
			return candidate[1:]
		}
	}
	return nil
}

// cornerDetour tries the four padded corners of the offending rectangle,
// preferring the shortest detour that clears every obstacle.
func cornerDetour(a, c *geo.Point, offender *geo.Box, obstacles []*geo.Box) *geo.Point {
	var best *geo.Point
	bestLength := 0.
	for _, corner := range offender.Expanded(DETOUR_PADDING).Corners() {
		if findOffender(a, corner, obstacles) != nil || findOffender(corner, c, obstacles) != nil {
			continue
		}
		length := a.DistanceTo(corner) + corner.DistanceTo(c)
		if best == nil || length < bestLength {
			best = corner
			bestLength = length
		}
	}
	return best
}

// lDetour bends the segment into an L through whichever perpendicular elbow
// avoids the offender.
func lDetour(a, c *geo.Point, offender *geo.Box) *geo.Point {
	for _, elbow := range []*geo.Point{
		geo.NewPoint(a.X, c.Y),
		geo.NewPoint(c.X, a.Y),
	} {
		if !passesThrough(a, elbow, offender) && !passesThrough(elbow, c, offender) && !offender.Contains(elbow) {
			return elbow
		}
	}
	return nil
}

func clean(route geo.Route, obstacles []*geo.Box) bool {
	for i := 0; i < len(route)-1; i++ {
		if findOffender(route[i], route[i+1], obstacles) != nil {
			return false
		}
	}
	return true
}

// ensureVisibleLength extends the endpoint outward along its own direction
// when the path's net length falls under the visibility floor.
func ensureVisibleLength(route geo.Route) geo.Route {
	if len(route) < 2 {
		return route
	}
	length := route.Length()
	if length >= MIN_VISIBLE_LENGTH {
		return route
	}

	last := route[len(route)-1]
	prev := route[len(route)-2]
	dir := prev.VectorTo(last)
	if dir.Length() == 0 {
		dir = geo.NewVector(1, 0)
	}
	extended := last.AddVector(dir.Unit().Multiply(MIN_VISIBLE_LENGTH - length))
	route[len(route)-1] = extended
	return route
}
