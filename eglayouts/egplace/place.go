// Package egplace positions nodes and relation labels inside their owning
// areas. Nodes get deterministic spiral-seeded points that dodge child-area
// holes; labels start at the centroid of their arguments and get displaced
// radially outward until they stop colliding.
package egplace

import (
	"context"
	"math"
	mathrand "math/rand"

	"cdr.dev/slog"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/eglayouts/egcontain"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/lib/geo"
	"github.com/peircelab/eglayout/lib/log"
)

const (
	SPIRAL_STEP  = 26.
	GOLDEN_ANGLE = 2.39996322972865332

	NODE_MARGIN  = 12.
	LABEL_MARGIN = 8.

	DISPLACE_STEP           = 16.
	MAX_DISPLACE_ITERATIONS = 40
	MAX_SEED_ATTEMPTS       = 64

	// MAX_RECONCILE_PASSES bounds the label re-placement loop after area
	// growth; each pass can grow areas again and invalidate earlier work.
	MAX_RECONCILE_PASSES = 3

	// MIN_HOOK_SEPARATION is the guaranteed distance between two hook points
	// on the same label.
	MIN_HOOK_SEPARATION = 8.
)

type Placement struct {
	Nodes  map[eggraph.NodeID]*geo.Point
	Labels map[eggraph.RelationID]*geo.Box
}

// Place computes node positions and label boxes. The seed drives the only
// pseudo-random choices (per-area spiral phase, displacement fallback
// direction), so a fixed seed reproduces the placement exactly. Areas are
// grown in place via egcontain.GrowToFit when a displaced label ends up
// outside its area's interior; because growth can expand a child hole over a
// previously legal position, a final reconcile pass re-validates everything
// against the settled rectangles.
func Place(ctx context.Context, g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, seed int64) (*Placement, error) {
	rnd := mathrand.New(mathrand.NewSource(seed))
	placement := &Placement{
		Nodes:  make(map[eggraph.NodeID]*geo.Point, len(g.Nodes)),
		Labels: make(map[eggraph.RelationID]*geo.Box, len(g.Relations)),
	}

	phases := make(map[eggraph.AreaID]float64)
	occupancy := make(map[eggraph.AreaID]int)
	for _, n := range g.Nodes {
		if _, ok := phases[n.Area]; !ok {
			phases[n.Area] = rnd.Float64() * 2 * math.Pi
		}
		pos := seedNodePosition(g, rects, placement, n.Area, occupancy[n.Area], phases[n.Area])
		placement.Nodes[n.ID] = pos
		occupancy[n.Area]++
	}

	for _, r := range g.Relations {
		box := placeLabel(g, rects, placement, r, rnd)
		placement.Labels[r.ID] = box
		growToFit(g, rects, placement, r.Area, box.Expanded(LABEL_MARGIN))
	}

	reconcile(g, rects, placement, rnd)

	log.Debug(ctx, "placement done",
		slog.F("nodes", len(placement.Nodes)),
		slog.F("labels", len(placement.Labels)))
	return placement, nil
}

// growToFit wraps egcontain.GrowToFit so that whenever the growth pass shifts
// a sibling area's rectangle, the nodes and labels already placed in that
// subtree move with it.
func growToFit(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *Placement, area eggraph.AreaID, needed *geo.Box) {
	egcontain.GrowToFit(g, rects, area, needed, func(a eggraph.AreaID, dx, dy float64) {
		for _, n := range g.NodesIn(a) {
			if p, ok := placement.Nodes[n.ID]; ok {
				p.X += dx
				p.Y += dy
			}
		}
		for _, r := range g.RelationsIn(a) {
			if box, ok := placement.Labels[r.ID]; ok {
				box.TopLeft.X += dx
				box.TopLeft.Y += dy
			}
		}
	})
}

// reconcile re-validates the whole placement against the final rectangles.
// Label growth can expand a child hole over a node or label that was legal
// when it was placed, and label re-placement can grow areas again, so labels
// are settled first in a bounded loop and nodes re-seeded last, when no more
// growth is coming.
func reconcile(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *Placement, rnd *mathrand.Rand) {
	for pass := 0; pass < MAX_RECONCILE_PASSES; pass++ {
		settled := true
		for _, r := range g.Relations {
			box := placement.Labels[r.ID]
			if box == nil || labelSettled(g, rects, placement, r, box) {
				continue
			}
			delete(placement.Labels, r.ID)
			box = placeLabel(g, rects, placement, r, rnd)
			placement.Labels[r.ID] = box
			growToFit(g, rects, placement, r.Area, box.Expanded(LABEL_MARGIN))
			settled = false
		}
		if settled {
			break
		}
	}

	for _, n := range g.Nodes {
		pos := placement.Nodes[n.ID]
		if pos == nil {
			continue
		}
		rect := rects[n.Area]
		holes := childHoles(g, rects, n.Area)
		placed := placedNodesIn(g, placement, n.Area, n.ID)
		if nodeFits(rect, holes, placed, pos, NODE_MARGIN) {
			continue
		}
		placement.Nodes[n.ID] = fallbackNodePosition(rect, holes, placed)
	}
}

func labelSettled(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *Placement, r *eggraph.Relation, box *geo.Box) bool {
	rect := rects[r.Area]
	if rect == nil || !rect.ContainsBox(box) {
		return false
	}
	padded := box.Expanded(LABEL_MARGIN)
	for _, hole := range childHoles(g, rects, r.Area) {
		if padded.Overlaps(hole) {
			return false
		}
	}
	for _, other := range g.RelationsIn(r.Area) {
		if other.ID == r.ID {
			continue
		}
		if otherBox := placement.Labels[other.ID]; otherBox != nil && padded.Overlaps(otherBox) {
			return false
		}
	}
	return true
}

// seedNodePosition walks an outward spiral around the area center, indexed by
// how many nodes already occupy the area, and returns the first point whose
// node footprint is inside the interior, clear of every child-area hole, and
// not too close to an already-placed node.
func seedNodePosition(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *Placement, area eggraph.AreaID, occupied int, phase float64) *geo.Point {
	rect := rects[area]
	center := rect.Center()
	holes := childHoles(g, rects, area)
	placed := placedNodesIn(g, placement, area, eggraph.NodeID(-1))

	maxRadius := math.Max(math.Min(rect.Width, rect.Height)/2-egcontain.AREA_PADDING/2, SPIRAL_STEP)

	for attempt := 0; attempt < MAX_SEED_ATTEMPTS; attempt++ {
		idx := float64(occupied + attempt)
		radius := math.Mod(SPIRAL_STEP*math.Sqrt(idx), maxRadius)
		angle := phase + idx*GOLDEN_ANGLE
		cand := geo.NewPoint(
			center.X+radius*math.Cos(angle),
			center.Y+radius*math.Sin(angle),
		)
		if nodeFits(rect, holes, placed, cand, NODE_MARGIN) {
			return cand
		}
	}
	return fallbackNodePosition(rect, holes, placed)
}

// nodeFits reports whether a node footprint centered at cand lies inside the
// area's interior, outside every hole, and at least minDist from every
// already-placed node.
func nodeFits(rect *geo.Box, holes []*geo.Box, placed []*geo.Point, cand *geo.Point, minDist float64) bool {
	if rect == nil || !rect.Expanded(-egtarget.NODE_RADIUS).Contains(cand) {
		return false
	}
	if insideAnyHole(cand, holes) {
		return false
	}
	for _, p := range placed {
		if cand.DistanceTo(p) < minDist {
			return false
		}
	}
	return true
}

// insideAnyHole reports whether a node footprint centered at p would reach
// into any child-area rectangle. The holes are tested padded by the node
// radius so a center just off a hole border still counts as inside.
func insideAnyHole(p *geo.Point, holes []*geo.Box) bool {
	for _, hole := range holes {
		if hole.Expanded(egtarget.NODE_RADIUS).Contains(p) {
			return true
		}
	}
	return false
}

// fallbackNodePosition scans the interior on a fixed grid, row by row, for
// the first cell that clears every hole and every placed node; when the area
// is too crowded it retries without the node-distance requirement before
// giving up on the center.
func fallbackNodePosition(rect *geo.Box, holes []*geo.Box, placed []*geo.Point) *geo.Point {
	if rect == nil {
		return geo.NewPoint(0, 0)
	}
	step := SPIRAL_STEP / 2
	for _, minDist := range []float64{NODE_MARGIN, 0} {
		for y := rect.TopLeft.Y + step; y < rect.TopLeft.Y+rect.Height; y += step {
			for x := rect.TopLeft.X + step; x < rect.TopLeft.X+rect.Width; x += step {
				cand := geo.NewPoint(x, y)
				if nodeFits(rect, holes, placed, cand, minDist) {
					return cand
				}
			}
		}
	}
	return rect.Center()
}

func placedNodesIn(g *eggraph.Graph, placement *Placement, area eggraph.AreaID, skip eggraph.NodeID) []*geo.Point {
	var placed []*geo.Point
	for _, n := range g.NodesIn(area) {
		if n.ID == skip {
			continue
		}
		if p, ok := placement.Nodes[n.ID]; ok {
			placed = append(placed, p)
		}
	}
	return placed
}

// placeLabel sizes the label from its text and settles it by pushing it
// outward along the vector from the area center, a bounded number of times.
func placeLabel(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *Placement, r *eggraph.Relation, rnd *mathrand.Rand) *geo.Box {
	w, h := egtarget.LabelDimensions(r.Label)
	rect := rects[r.Area]
	areaCenter := rect.Center()
	holes := childHoles(g, rects, r.Area)

	var argPoints geo.Points
	for _, arg := range r.Args {
		if p, ok := placement.Nodes[arg]; ok {
			argPoints = append(argPoints, p)
		}
	}

	var center *geo.Point
	if len(argPoints) > 0 {
		center = argPoints.Centroid()
	} else {
		// no arguments to anchor to; start near the area center
		center = geo.NewPoint(areaCenter.X, areaCenter.Y-h)
	}

	dir := areaCenter.VectorTo(center)
	if dir.Length() == 0 {
		angle := rnd.Float64() * 2 * math.Pi
		dir = geo.NewVector(math.Cos(angle), math.Sin(angle))
	}
	step := dir.Unit().Multiply(DISPLACE_STEP)

	box := geo.NewBox(geo.NewPoint(center.X-w/2, center.Y-h/2), w, h)
	for i := 0; i < MAX_DISPLACE_ITERATIONS; i++ {
		if !labelCollides(box, placement, argPoints, holes) {
			break
		}
		box.TopLeft = box.TopLeft.AddVector(step)
	}
	return box
}

func labelCollides(box *geo.Box, placement *Placement, argPoints geo.Points, holes []*geo.Box) bool {
	padded := box.Expanded(LABEL_MARGIN)
	for _, other := range placement.Labels {
		if padded.Overlaps(other) {
			return true
		}
	}
	for _, p := range argPoints {
		if padded.Contains(p) {
			return true
		}
	}
	for _, hole := range holes {
		if padded.Overlaps(hole) {
			return true
		}
	}
	return false
}

func childHoles(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, area eggraph.AreaID) []*geo.Box {
	var holes []*geo.Box
	for _, c := range g.Area(area).Children {
		if rect := rects[c]; rect != nil {
			holes = append(holes, rect)
		}
	}
	return holes
}

// HookPoint returns the attachment point on the label's border for argument
// slot argIndex of a relation with the given arity: the perimeter point at
// (argIndex + 0.5) * (perimeter / arity), measured clockwise from the
// top-left corner. Distinct slots always map to distinct, evenly spaced
// points.
func HookPoint(labelBox *geo.Box, argIndex, arity int) *geo.Point {
	if arity < 1 {
		return labelBox.Center()
	}
	param := (float64(argIndex) + 0.5) * (labelBox.PerimeterLength() / float64(arity))
	return labelBox.PointOnPerimeter(param)
}
