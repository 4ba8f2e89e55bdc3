// Package eglayout is the spatial correspondence and routing engine for
// existential graph diagrams: it maps a purely logical structure of nested
// areas, nodes and relation instances to nested rectangles, collision-free
// positions and routed connector paths.
//
// GenerateLayout is a pure function of the graph snapshot plus options; it
// retains no state between calls, so concurrent calls on different snapshots
// need no locking.
package eglayout

import (
	"context"
	"os"

	"cdr.dev/slog"
	"github.com/google/uuid"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/eglayouts/egcontain"
	"github.com/peircelab/eglayout/eglayouts/egplace"
	"github.com/peircelab/eglayout/eglayouts/egroute"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/egtransform"
	"github.com/peircelab/eglayout/egvalidate"
	"github.com/peircelab/eglayout/lib/geo"
	"github.com/peircelab/eglayout/lib/log"
)

type LayoutOptions struct {
	// CanvasWidth and CanvasHeight bound the final fit-to-canvas pass; zero
	// disables it. The pass only ever scales down.
	CanvasWidth  float64
	CanvasHeight float64

	// Seed drives placement's pseudo-random choices; a fixed seed makes
	// re-layout of an unchanged graph reproducible.
	Seed int64

	// Router overrides the built-in visibility-graph router.
	Router egroute.Router
}

// GenerateLayout builds a fresh SpatialLayout for the graph: containment
// rectangles, node and label positions, and one routed connector per
// (node, incident relation) pair. A malformed graph aborts with
// *eggraph.StructuralError before any placement work.
func GenerateLayout(ctx context.Context, g *eggraph.Graph, opts *LayoutOptions) (*egtarget.Layout, error) {
	if opts == nil {
		opts = &LayoutOptions{}
	}
	runID := uuid.NewString()
	log.Debug(ctx, "generating layout",
		slog.F("run", runID),
		slog.F("areas", len(g.Areas)),
		slog.F("nodes", len(g.Nodes)),
		slog.F("relations", len(g.Relations)))

	if err := g.Validate(); err != nil {
		return nil, err
	}

	rects, err := egcontain.Layout(ctx, g)
	if err != nil {
		return nil, err
	}

	placement, err := egplace.Place(ctx, g, rects, opts.Seed)
	if err != nil {
		return nil, err
	}

	connectors := egroute.NewBuilder(opts.Router).BuildAll(ctx, g, rects, placement)

	layout := assemble(g, rects, placement, connectors, opts.Seed)

	if opts.CanvasWidth > 0 || opts.CanvasHeight > 0 {
		scale := layout.FitToCanvas(opts.CanvasWidth, opts.CanvasHeight)
		log.Debug(ctx, "fit to canvas", slog.F("scale", scale))
	}

	if os.Getenv("DEBUG") == "1" {
		for _, v := range egvalidate.ValidateMapping(g, layout) {
			log.Error(ctx, "mapping violation", slog.F("violation", v.String()))
		}
		for _, v := range egvalidate.ValidateExclusion(layout, g) {
			log.Error(ctx, "exclusion violation", slog.F("violation", v.String()))
		}
	}
	return layout, nil
}

func assemble(g *eggraph.Graph, rects map[eggraph.AreaID]*geo.Box, placement *egplace.Placement, connectors *egroute.Connectors, seed int64) *egtarget.Layout {
	layout := egtarget.NewLayout(seed)

	for _, a := range g.Areas {
		owner := a.Parent
		if a.ID == g.Root {
			owner = g.Root
		}
		layout.Add(&egtarget.Element{
			ID:         egtarget.AreaElementID(a.ID),
			Kind:       egtarget.KindArea,
			OwningArea: owner,
			Box:        rects[a.ID],
		})
	}

	for _, n := range g.Nodes {
		pos := placement.Nodes[n.ID]
		size := egtarget.NodeBoxSize()
		layout.Add(&egtarget.Element{
			ID:         egtarget.NodeElementID(n.ID),
			Kind:       egtarget.KindNode,
			OwningArea: n.Area,
			Label:      n.Label,
			Box:        geo.NewBox(geo.NewPoint(pos.X-size/2, pos.Y-size/2), size, size),
		})
	}

	for _, r := range g.Relations {
		box := placement.Labels[r.ID]
		el := &egtarget.Element{
			ID:         egtarget.RelationElementID(r.ID),
			Kind:       egtarget.KindRelation,
			OwningArea: r.Area,
			Label:      r.Label,
			Box:        box,
		}
		if len(r.Args) > 0 {
			// arity badge slot above the label's top-right corner
			el.Annotation = geo.NewBox(
				geo.NewPoint(box.TopLeft.X+box.Width-egtarget.LABEL_HEIGHT/2, box.TopLeft.Y-egtarget.LABEL_HEIGHT/2),
				egtarget.LABEL_HEIGHT/2,
				egtarget.LABEL_HEIGHT/2,
			)
		}
		layout.Add(el)
	}

	for _, n := range g.Nodes {
		for _, r := range g.Incidences(n.ID) {
			id := egtarget.ConnectorID(n.ID, r.ID)
			el := &egtarget.Element{
				ID:         id,
				Kind:       egtarget.KindConnector,
				OwningArea: n.Area,
				Route:      connectors.Routes[id],
			}
			el.Sync()
			layout.Add(el)
		}
	}
	return layout
}

// ValidateMapping checks mapping completeness between graph and layout; an
// empty result is a pass. Violations indicate an engine defect, not a user
// error.
func ValidateMapping(g *eggraph.Graph, layout *egtarget.Layout) []egvalidate.Violation {
	return egvalidate.ValidateMapping(g, layout)
}

// ValidateExclusion checks the spatial exclusion invariant along the
// containment tree; an empty result is a pass.
func ValidateExclusion(layout *egtarget.Layout, g *eggraph.Graph) []egvalidate.Violation {
	return egvalidate.ValidateExclusion(layout, g)
}

// ApplyTransformation applies one interactive connector edit, returning a new
// layout. A disallowed edit returns an error wrapping
// egtransform.ErrRejected and leaves the input layout untouched.
func ApplyTransformation(layout *egtarget.Layout, g *eggraph.Graph, kind egtransform.Kind, target string, params egtransform.Params) (*egtarget.Layout, error) {
	return egtransform.Apply(layout, g, kind, target, params)
}
