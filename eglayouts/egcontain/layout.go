// Package egcontain computes the nested area rectangles: a bottom-up,
// content-driven sizing pass followed by a top-down placement pass, with
// growth propagation when a descendant later turns out to need more room.
package egcontain

import (
	"context"
	"math"

	"cdr.dev/slog"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/lib/geo"
	"github.com/peircelab/eglayout/lib/log"
)

const (
	AREA_PADDING  = 40.
	AREA_GAP      = 20.
	MIN_AREA_SIZE = 80.

	// ROW_WRAP_WIDTH bounds the left-to-right flow of sheet-level areas
	// before wrapping to a new row.
	ROW_WRAP_WIDTH = 1200.

	// ELEMENT_FOOTPRINT is the square footprint reserved per node during
	// sizing, leaving room for the connectors that will attach to it.
	ELEMENT_FOOTPRINT = 60.

	// SIZE_SLACK scales the estimated content area so placement has
	// maneuvering room.
	SIZE_SLACK = 1.4

	MAX_SHIFT_ITERATIONS = 10
)

// Layout computes a rectangle for every area. Sizing walks the containment
// tree deepest-first so each parent sees final child sizes; placement then
// walks shallowest-first: sheet-level areas flow left-to-right with wrapping,
// deeper children stack vertically inside their parent's padded interior.
func Layout(ctx context.Context, g *eggraph.Graph) (map[eggraph.AreaID]*geo.Box, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	sorted := g.DepthSorted()

	sizes := make(map[eggraph.AreaID]*geo.Point)
	for i := len(sorted) - 1; i >= 0; i-- {
		a := sorted[i]
		sizes[a.ID] = estimateSize(g, sizes, a)
	}

	rects := make(map[eggraph.AreaID]*geo.Box, len(g.Areas))
	rootSize := sizes[g.Root]
	rects[g.Root] = geo.NewBox(geo.NewPoint(0, 0), rootSize.X, rootSize.Y)

	for _, a := range sorted {
		placeChildren(g, a, rects, sizes)
	}

	log.Debug(ctx, "containment layout done",
		slog.F("areas", len(rects)),
		slog.F("sheet", rects[g.Root].ToString()))
	return rects, nil
}

// estimateSize returns a square-ish (width, height) for area a from the
// footprints of its direct nodes and relation labels plus the final sizes of
// its children. MIN_AREA_SIZE is the floor.
func estimateSize(g *eggraph.Graph, sizes map[eggraph.AreaID]*geo.Point, a *eggraph.Area) *geo.Point {
	content := 0.
	maxW := 0.
	maxH := 0.

	for range g.NodesIn(a.ID) {
		content += ELEMENT_FOOTPRINT * ELEMENT_FOOTPRINT
		maxW = math.Max(maxW, ELEMENT_FOOTPRINT)
		maxH = math.Max(maxH, ELEMENT_FOOTPRINT)
	}
	for _, r := range g.RelationsIn(a.ID) {
		w, h := egtarget.LabelDimensions(r.Label)
		content += (w + AREA_GAP) * (h + AREA_GAP)
		maxW = math.Max(maxW, w)
		maxH = math.Max(maxH, h)
	}
	for _, c := range a.Children {
		cs := sizes[c]
		content += (cs.X + AREA_GAP) * (cs.Y + AREA_GAP)
		maxW = math.Max(maxW, cs.X)
		maxH = math.Max(maxH, cs.Y)
	}

	side := math.Sqrt(content) * SIZE_SLACK
	w := math.Max(side, maxW) + 2*AREA_PADDING
	h := math.Max(side, maxH) + 2*AREA_PADDING

	// children stack vertically, so the estimate must cover the full stack
	stack := 0.
	for _, c := range a.Children {
		stack += sizes[c].Y + AREA_GAP
	}
	h = math.Max(h, stack+2*AREA_PADDING)

	return geo.NewPoint(math.Max(w, MIN_AREA_SIZE), math.Max(h, MIN_AREA_SIZE))
}

func placeChildren(g *eggraph.Graph, a *eggraph.Area, rects map[eggraph.AreaID]*geo.Box, sizes map[eggraph.AreaID]*geo.Point) {
	if len(a.Children) == 0 {
		return
	}
	parent := rects[a.ID]
	interiorTL := geo.NewPoint(parent.TopLeft.X+AREA_PADDING, parent.TopLeft.Y+AREA_PADDING)

	if a.ID == g.Root {
		// sheet-level areas flow left-to-right with wrapping
		x := interiorTL.X
		y := interiorTL.Y
		rowHeight := 0.
		wrapAt := interiorTL.X + math.Max(parent.Width-2*AREA_PADDING, ROW_WRAP_WIDTH)
		for _, c := range a.Children {
			cs := sizes[c]
			if x > interiorTL.X && x+cs.X > wrapAt {
				x = interiorTL.X
				y += rowHeight + AREA_GAP
				rowHeight = 0
			}
			rects[c] = geo.NewBox(geo.NewPoint(x, y), cs.X, cs.Y)
			x += cs.X + AREA_GAP
			rowHeight = math.Max(rowHeight, cs.Y)
		}
	} else {
		// deeper children stack vertically
		y := interiorTL.Y
		for _, c := range a.Children {
			cs := sizes[c]
			rects[c] = geo.NewBox(geo.NewPoint(interiorTL.X, y), cs.X, cs.Y)
			y += cs.Y + AREA_GAP
		}
	}

	for _, c := range a.Children {
		GrowToFit(g, rects, a.ID, rects[c].Expanded(AREA_GAP))
	}
}

// Mover is notified once per area rectangle GrowToFit translates, with the
// applied delta, so callers can carry the area's already-placed contents
// along with it.
type Mover func(a eggraph.AreaID, dx, dy float64)

// GrowToFit grows area a (and transitively every ancestor) by the minimal
// delta so that the given absolute box fits inside a's padded interior, then
// re-validates already-placed sibling bounds for overlap at each level.
// Placement passes call this when an element lands outside the room its
// owning area currently offers.
func GrowToFit(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, a eggraph.AreaID, needed *geo.Box, movers ...Mover) {
	id := a
	target := needed
	for id != eggraph.RootParent {
		rect := rects[id]
		if rect == nil {
			return
		}
		grown := false

		if target.TopLeft.X < rect.TopLeft.X+AREA_PADDING {
			newX := target.TopLeft.X - AREA_PADDING
			rect.Width += rect.TopLeft.X - newX
			rect.TopLeft.X = newX
			grown = true
		}
		if target.TopLeft.Y < rect.TopLeft.Y+AREA_PADDING {
			newY := target.TopLeft.Y - AREA_PADDING
			rect.Height += rect.TopLeft.Y - newY
			rect.TopLeft.Y = newY
			grown = true
		}
		if target.TopLeft.X+target.Width > rect.TopLeft.X+rect.Width-AREA_PADDING {
			rect.Width = target.TopLeft.X + target.Width + AREA_PADDING - rect.TopLeft.X
			grown = true
		}
		if target.TopLeft.Y+target.Height > rect.TopLeft.Y+rect.Height-AREA_PADDING {
			rect.Height = target.TopLeft.Y + target.Height + AREA_PADDING - rect.TopLeft.Y
			grown = true
		}

		if !grown {
			return
		}

		area := g.Area(id)
		if area.Parent != eggraph.RootParent {
			resolveSiblingOverlaps(g, rects, g.Area(area.Parent), id, movers)
		}
		target = rect
		id = area.Parent
	}
}

// resolveSiblingOverlaps shifts siblings of the grown area away along a fixed
// vector, in a bounded loop. Exceeding the cap is accepted silently; the
// result is best-effort, not overlap-free by construction.
func resolveSiblingOverlaps(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, parent *eggraph.Area, grown eggraph.AreaID, movers []Mover) {
	grownRect := rects[grown]
	if grownRect == nil {
		return
	}
	for i := 0; i < MAX_SHIFT_ITERATIONS; i++ {
		shifted := false
		for _, sib := range parent.Children {
			if sib == grown {
				continue
			}
			sibRect := rects[sib]
			if sibRect == nil || !sibRect.Overlaps(grownRect) {
				continue
			}
			// fixed shift vector: push the sibling below the grown area
			dy := grownRect.TopLeft.Y + grownRect.Height + AREA_GAP - sibRect.TopLeft.Y
			moveWithDescendants(g, rects, sib, 0, dy, movers)
			shifted = true
		}
		if !shifted {
			return
		}
	}
}

func moveWithDescendants(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, a eggraph.AreaID, dx, dy float64, movers []Mover) {
	rect := rects[a]
	if rect == nil {
		return
	}
	rect.TopLeft.X += dx
	rect.TopLeft.Y += dy
	for _, m := range movers {
		m(a, dx, dy)
	}
	for _, c := range g.Area(a).Children {
		moveWithDescendants(g, rects, c, dx, dy, movers)
	}
}
