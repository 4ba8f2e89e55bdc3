// Package egvalidate checks post-layout invariants: mapping completeness
// between the logical graph and the layout, and spatial exclusion between
// areas and the elements they own. Validators are pure inspection; a non-empty
// result signals a defect in the layout algorithm, not a user error.
package egvalidate

import (
	"fmt"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/lib/geo"
)

type Violation struct {
	ElementID string
	Reason    string
	// Bounds and Other are the offending rectangles when the violation is
	// spatial.
	Bounds *geo.Box
	Other  *geo.Box
}

func (v Violation) String() string {
	s := fmt.Sprintf("%s: %s", v.ElementID, v.Reason)
	if v.Bounds != nil {
		s += " " + v.Bounds.ToString()
	}
	if v.Other != nil {
		s += " vs " + v.Other.ToString()
	}
	return s
}

func violationf(id string, format string, args ...interface{}) Violation {
	return Violation{ElementID: id, Reason: fmt.Sprintf(format, args...)}
}

// ValidateMapping checks that the layout's id set is exactly the logical id
// set plus one connector per (node, incident relation) pair, with matching
// kind, owning area and label on every element.
func ValidateMapping(g *eggraph.Graph, layout *egtarget.Layout) []Violation {
	var violations []Violation
	expected := make(map[string]struct{}, len(layout.Elements))

	check := func(id string, kind egtarget.Kind, area eggraph.AreaID, label string) {
		expected[id] = struct{}{}
		el := layout.Get(id)
		if el == nil {
			violations = append(violations, violationf(id, "missing from layout"))
			return
		}
		if el.Kind != kind {
			violations = append(violations, violationf(id, "kind %s, want %s", el.Kind, kind))
		}
		if el.OwningArea != area {
			violations = append(violations, violationf(id, "owned by %s, want %s", el.OwningArea, area))
		}
		if el.Label != label {
			violations = append(violations, violationf(id, "label %q, want %q", el.Label, label))
		}
	}

	for _, a := range g.Areas {
		owner := a.Parent
		if a.ID == g.Root {
			owner = g.Root
		}
		check(egtarget.AreaElementID(a.ID), egtarget.KindArea, owner, "")
	}
	for _, n := range g.Nodes {
		check(egtarget.NodeElementID(n.ID), egtarget.KindNode, n.Area, n.Label)
	}
	for _, r := range g.Relations {
		check(egtarget.RelationElementID(r.ID), egtarget.KindRelation, r.Area, r.Label)
	}
	for _, n := range g.Nodes {
		for _, r := range g.Incidences(n.ID) {
			id := egtarget.ConnectorID(n.ID, r.ID)
			expected[id] = struct{}{}
			el := layout.Get(id)
			if el == nil {
				violations = append(violations, violationf(id, "missing connector"))
				continue
			}
			if el.Kind != egtarget.KindConnector {
				violations = append(violations, violationf(id, "kind %s, want connector", el.Kind))
			}
			if len(el.Route) < 2 {
				violations = append(violations, violationf(id, "connector has no path"))
			}
		}
	}

	for id := range layout.Elements {
		if _, ok := expected[id]; !ok {
			violations = append(violations, violationf(id, "not backed by any logical element"))
		}
	}
	return violations
}

// ValidateExclusion checks spatial exclusion along the containment tree:
// every element owned by a non-root area lies fully inside that area's
// rectangle, a non-connector element (sibling areas included) never overlaps
// a child area of its owner, and a connector may overlap a child only if its
// path terminates inside it.
func ValidateExclusion(layout *egtarget.Layout, g *eggraph.Graph) []Violation {
	var violations []Violation

	areaRect := func(id eggraph.AreaID) *geo.Box {
		el := layout.Get(egtarget.AreaElementID(id))
		if el == nil {
			return nil
		}
		return el.Box
	}

	for _, el := range layout.Elements {
		owner := g.Area(el.OwningArea)
		if owner == nil || el.Box == nil {
			continue
		}
		// the sheet element owns itself; the root's children are its
		// contents, not its siblings
		if el.ID == egtarget.AreaElementID(owner.ID) {
			continue
		}

		if el.Kind != egtarget.KindConnector && owner.ID != g.Root {
			rect := areaRect(owner.ID)
			if rect != nil && !rect.ContainsBox(el.Box) {
				violations = append(violations, Violation{
					ElementID: el.ID,
					Reason:    fmt.Sprintf("escapes its owning area %s", owner.ID),
					Bounds:    el.Box,
					Other:     rect,
				})
			}
		}

		for _, child := range owner.Children {
			childRect := areaRect(child)
			if childRect == nil || el.ID == egtarget.AreaElementID(child) {
				continue
			}
			if !el.Box.Overlaps(childRect) {
				continue
			}
			if el.Kind == egtarget.KindConnector {
				if connectorTerminatesIn(el, childRect) || !connectorCrosses(el, childRect) {
					continue
				}
			}
			reason := fmt.Sprintf("overlaps child area %s of its owning area", child)
			if el.Kind == egtarget.KindArea {
				reason = fmt.Sprintf("overlaps sibling area %s", child)
			}
			violations = append(violations, Violation{
				ElementID: el.ID,
				Reason:    reason,
				Bounds:    el.Box,
				Other:     childRect,
			})
		}
	}
	return violations
}

func connectorTerminatesIn(el *egtarget.Element, rect *geo.Box) bool {
	if len(el.Route) == 0 {
		return false
	}
	first := el.Route[0]
	last := el.Route[len(el.Route)-1]
	return rect.Contains(first) || rect.Contains(last)
}

// connectorCrosses reports whether any route segment truly cuts across rect
// with both endpoints outside it.
func connectorCrosses(el *egtarget.Element, rect *geo.Box) bool {
	for i := 0; i < len(el.Route)-1; i++ {
		a, b := el.Route[i], el.Route[i+1]
		if rect.Contains(a) || rect.Contains(b) {
			continue
		}
		if len(rect.Intersections(geo.Segment{Start: a, End: b})) >= 2 {
			return true
		}
	}
	return false
}
