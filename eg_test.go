package eglayout_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peircelab/eglayout"
	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/eglayouts/egcontain"
	"github.com/peircelab/eglayout/eglayouts/egplace"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/egtransform"
	"github.com/peircelab/eglayout/lib/geo"
	"github.com/peircelab/eglayout/lib/log"
)

// a graph exercising nesting, identity groups and a zero-arity relation
func sampleGraph() *eggraph.Graph {
	g := eggraph.NewGraph()
	socrates := g.AddNode(g.Root, "Socrates")
	g.AddRelation(g.Root, "man", socrates.ID)

	cut := g.AddArea(g.Root)
	mortalArg := g.AddNode(cut.ID, "Socrates")
	inner := g.AddArea(cut.ID)
	g.AddRelation(inner.ID, "mortal", mortalArg.ID)

	g.AddRelation(g.Root, "raining")
	return g
}

func TestMappingCompleteness(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := sampleGraph()

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	violations := eglayout.ValidateMapping(g, layout)
	tassert.Empty(t, violations)

	// areas + nodes + relations + one connector per (node, incident relation)
	tassert.Len(t, layout.Elements, 3+2+3+2)
}

func TestSpatialExclusion(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := sampleGraph()

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	violations := eglayout.ValidateExclusion(layout, g)
	tassert.Empty(t, violations)
}

func TestContainmentWithPadding(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := eggraph.NewGraph()
	cut := g.AddArea(g.Root)
	inner := g.AddArea(cut.ID)
	_ = inner

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	sheet := layout.Get(egtarget.AreaElementID(g.Root)).Box
	cutBox := layout.Get(egtarget.AreaElementID(cut.ID)).Box
	innerBox := layout.Get(egtarget.AreaElementID(inner.ID)).Box

	tassert.True(t, sheet.Expanded(-egcontain.AREA_PADDING).ContainsBox(cutBox))
	tassert.True(t, cutBox.Expanded(-egcontain.AREA_PADDING).ContainsBox(innerBox))
}

func TestSiblingAreasDoNotOverlap(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := eggraph.NewGraph()
	a := g.AddArea(g.Root)
	b := g.AddArea(g.Root)
	n := g.AddNode(a.ID, "Socrates")
	g.AddRelation(a.ID, "man", n.ID)
	g.AddRelation(b.ID, "raining")

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	boxA := layout.Get(egtarget.AreaElementID(a.ID)).Box
	boxB := layout.Get(egtarget.AreaElementID(b.ID)).Box
	tassert.False(t, boxA.Overlaps(boxB))
}

func TestNoPassThrough(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := sampleGraph()

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	for _, conn := range layout.OfKind(egtarget.KindConnector) {
		for _, rel := range layout.OfKind(egtarget.KindRelation) {
			// skip the relation this connector attaches to
			if strings.HasSuffix(conn.ID, "-"+strings.TrimPrefix(rel.ID, "relation-")) {
				continue
			}
			for i := 0; i < len(conn.Route)-1; i++ {
				a, b := conn.Route[i], conn.Route[i+1]
				if rel.Box.Contains(a) || rel.Box.Contains(b) {
					continue
				}
				crossings := rel.Box.Intersections(geo.Segment{Start: a, End: b})
				tassert.Less(t, len(crossings), 2,
					"connector %s cuts across label %s", conn.ID, rel.ID)
			}
		}
	}
}

func TestIdempotentRelayout(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	opts := &eglayout.LayoutOptions{Seed: 42}

	g := sampleGraph()
	first, err := eglayout.GenerateLayout(ctx, g, opts)
	require.NoError(t, err)
	second, err := eglayout.GenerateLayout(ctx, g, opts)
	require.NoError(t, err)

	for _, layout := range []*egtarget.Layout{first, second} {
		tassert.Empty(t, eglayout.ValidateMapping(g, layout))
		tassert.Empty(t, eglayout.ValidateExclusion(layout, g))
	}

	require.Equal(t, len(first.Elements), len(second.Elements))
	for id, el := range first.Elements {
		other := second.Get(id)
		require.NotNil(t, other, "element %s missing on re-layout", id)
		tassert.True(t, el.Box.TopLeft.Equals(other.Box.TopLeft), "element %s moved", id)
		require.Equal(t, len(el.Route), len(other.Route), "route of %s changed", id)
		for i := range el.Route {
			tassert.True(t, el.Route[i].Equals(other.Route[i]), "route point %d of %s moved", i, id)
		}
	}
}

func TestStructuralErrorAbortsGeneration(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := eggraph.NewGraph()
	g.AddRelation(g.Root, "mortal", eggraph.NodeID(17))

	_, err := eglayout.GenerateLayout(ctx, g, nil)
	require.Error(t, err)
	var structural *eggraph.StructuralError
	tassert.True(t, errors.As(err, &structural))
}

func TestFitToCanvas(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := sampleGraph()

	layout, err := eglayout.GenerateLayout(ctx, g, &eglayout.LayoutOptions{
		CanvasWidth:  300,
		CanvasHeight: 300,
	})
	require.NoError(t, err)

	bounds := layout.BoundingBox()
	tassert.LessOrEqual(t, bounds.Width, 300.001)
	tassert.LessOrEqual(t, bounds.Height, 300.001)
}

// Scenario: one area, one node, two arity-1 relations referencing it
func TestTwoRelationsTwoDistinctHooks(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := eggraph.NewGraph()
	n := g.AddNode(g.Root, "")
	man := g.AddRelation(g.Root, "man", n.ID)
	wise := g.AddRelation(g.Root, "wise", n.ID)

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	tassert.NotNil(t, layout.Get(egtarget.ConnectorID(n.ID, man.ID)))
	tassert.NotNil(t, layout.Get(egtarget.ConnectorID(n.ID, wise.ID)))

	hookMan := egplace.HookPoint(layout.Get(egtarget.RelationElementID(man.ID)).Box, 0, 1)
	hookWise := egplace.HookPoint(layout.Get(egtarget.RelationElementID(wise.ID)).Box, 0, 1)
	tassert.GreaterOrEqual(t, hookMan.DistanceTo(hookWise), egplace.MIN_HOOK_SEPARATION)
}

// Scenario: parent area containing one cut with a node and relation inside
func TestParentRoomForChildCut(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := eggraph.NewGraph()
	cut := g.AddArea(g.Root)
	n := g.AddNode(cut.ID, "")
	g.AddRelation(cut.ID, "mortal", n.ID)

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	parent := layout.Get(egtarget.AreaElementID(g.Root)).Box
	child := layout.Get(egtarget.AreaElementID(cut.ID)).Box
	tassert.GreaterOrEqual(t, parent.Width, child.Width+2*egcontain.AREA_PADDING)
}

// Scenario: connectors in an area with a sibling child cut never cross it
func TestConnectorsAvoidSiblingCut(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := eggraph.NewGraph()
	sibling := g.AddArea(g.Root)
	n := g.AddNode(g.Root, "")
	g.AddRelation(g.Root, "man", n.ID)
	g.AddRelation(g.Root, "wise", n.ID)
	g.AddRelation(g.Root, "greek", n.ID)

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)

	siblingBox := layout.Get(egtarget.AreaElementID(sibling.ID)).Box
	for _, conn := range layout.OfKind(egtarget.KindConnector) {
		for i := 0; i < len(conn.Route)-1; i++ {
			a, b := conn.Route[i], conn.Route[i+1]
			tassert.False(t, siblingBox.Contains(a) || siblingBox.Contains(b),
				"connector %s enters sibling cut", conn.ID)
			crossings := siblingBox.Intersections(geo.Segment{Start: a, End: b})
			tassert.Less(t, len(crossings), 2,
				"connector %s cuts across sibling cut", conn.ID)
		}
	}
}

// Scenario: retract on a group with mismatched labels is rejected
func TestRetractMismatchedLabelsRejected(t *testing.T) {
	ctx := log.WithTB(context.Background(), t, nil)
	g := eggraph.NewGraph()
	a := g.AddNode(g.Root, "Socrates")
	b := g.AddNode(g.Root, "")
	r := g.AddRelation(g.Root, "teaches", a.ID, b.ID)

	layout, err := eglayout.GenerateLayout(ctx, g, nil)
	require.NoError(t, err)
	before := layout.Clone()

	_, err = eglayout.ApplyTransformation(layout, g, egtransform.Retract,
		egtarget.ConnectorID(a.ID, r.ID), egtransform.Params{})
	tassert.True(t, errors.Is(err, egtransform.ErrRejected))

	// input layout untouched
	require.Equal(t, len(before.Elements), len(layout.Elements))
	for id := range before.Elements {
		tassert.NotNil(t, layout.Get(id))
	}
}
