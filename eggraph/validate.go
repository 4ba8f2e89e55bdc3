package eggraph

import (
	"fmt"
)

// StructuralError reports a malformed graph: a dangling reference, duplicate
// ownership link, or a containment cycle. It is a caller error and aborts
// layout generation before any placement work.
type StructuralError struct {
	ID     string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed graph at %s: %s", e.ID, e.Reason)
}

func structuralErrorf(id fmt.Stringer, format string, args ...interface{}) error {
	return &StructuralError{ID: id.String(), Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the membership and containment invariants: ids are in
// range, the sheet is the single parentless area, every area's parent link
// agrees with the parent's child list, containment is acyclic, and every node
// and relation argument resolves.
func (g *Graph) Validate() error {
	if g.Area(g.Root) == nil {
		return &StructuralError{ID: g.Root.String(), Reason: "missing root area"}
	}
	if g.Sheet().Parent != RootParent {
		return structuralErrorf(g.Root, "root area has a parent")
	}

	for i, a := range g.Areas {
		if a.ID != AreaID(i) {
			return structuralErrorf(a.ID, "area id does not match its arena index %d", i)
		}
		if a.ID == g.Root {
			continue
		}
		parent := g.Area(a.Parent)
		if parent == nil {
			return structuralErrorf(a.ID, "dangling parent %v", a.Parent)
		}
		found := false
		for _, c := range parent.Children {
			if c == a.ID {
				found = true
				break
			}
		}
		if !found {
			return structuralErrorf(a.ID, "not listed among children of %s", parent.ID)
		}
	}

	for _, a := range g.Areas {
		seen := make(map[AreaID]struct{})
		for id := a.ID; id != RootParent; {
			if _, ok := seen[id]; ok {
				return structuralErrorf(a.ID, "containment cycle through %s", id)
			}
			seen[id] = struct{}{}
			area := g.Area(id)
			if area == nil {
				return structuralErrorf(a.ID, "ancestry leaves the arena at %s", id)
			}
			id = area.Parent
		}
		childCounts := make(map[AreaID]int)
		for _, c := range a.Children {
			childCounts[c]++
			child := g.Area(c)
			if child == nil {
				return structuralErrorf(a.ID, "dangling child %v", c)
			}
			if child.Parent != a.ID {
				return structuralErrorf(c, "owned by %s but parented to %s", a.ID, child.Parent)
			}
			if childCounts[c] > 1 {
				return structuralErrorf(a.ID, "child %s listed twice", c)
			}
		}
	}

	for i, n := range g.Nodes {
		if n.ID != NodeID(i) {
			return structuralErrorf(n.ID, "node id does not match its arena index %d", i)
		}
		if g.Area(n.Area) == nil {
			return structuralErrorf(n.ID, "dangling owning area %v", n.Area)
		}
	}

	for i, r := range g.Relations {
		if r.ID != RelationID(i) {
			return structuralErrorf(r.ID, "relation id does not match its arena index %d", i)
		}
		if g.Area(r.Area) == nil {
			return structuralErrorf(r.ID, "dangling owning area %v", r.Area)
		}
		for slot, arg := range r.Args {
			if g.Node(arg) == nil {
				return structuralErrorf(r.ID, "argument %d references missing node %v", slot, arg)
			}
		}
	}

	return nil
}
