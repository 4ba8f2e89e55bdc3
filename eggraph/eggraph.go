// Package eggraph models the logical structure of an existential graph: a
// rooted tree of areas (the sheet and its nested cuts), point nodes, and
// labeled relation instances with ordered node arguments.
//
// The graph is an arena: elements live in slices and refer to each other by
// small index ids. The engine reads it as an immutable snapshot; builders are
// for the owning caller.
package eggraph

import (
	"fmt"
)

type AreaID int
type NodeID int
type RelationID int

// RootParent is the parent id of the sheet, the single root area.
const RootParent AreaID = -1

type Area struct {
	ID       AreaID
	Parent   AreaID
	Children []AreaID
}

type Node struct {
	ID   NodeID
	Area AreaID
	// Label is the node's display label; "" means unnamed.
	Label string
}

type Relation struct {
	ID    RelationID
	Area  AreaID
	Label string
	// Args is the ordered argument list; its length is the relation's arity
	// and may be zero. The same node may appear more than once.
	Args []NodeID
}

type Graph struct {
	Root      AreaID
	Areas     []*Area
	Nodes     []*Node
	Relations []*Relation
}

// NewGraph creates a graph containing only the sheet.
func NewGraph() *Graph {
	g := &Graph{}
	sheet := &Area{ID: 0, Parent: RootParent}
	g.Areas = append(g.Areas, sheet)
	g.Root = sheet.ID
	return g
}

func (g *Graph) Sheet() *Area {
	return g.Areas[g.Root]
}

func (g *Graph) Area(id AreaID) *Area {
	if id < 0 || int(id) >= len(g.Areas) {
		return nil
	}
	return g.Areas[id]
}

func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.Nodes) {
		return nil
	}
	return g.Nodes[id]
}

func (g *Graph) Relation(id RelationID) *Relation {
	if id < 0 || int(id) >= len(g.Relations) {
		return nil
	}
	return g.Relations[id]
}

// AddArea appends a new area under parent and returns it.
func (g *Graph) AddArea(parent AreaID) *Area {
	a := &Area{ID: AreaID(len(g.Areas)), Parent: parent}
	g.Areas = append(g.Areas, a)
	if p := g.Area(parent); p != nil {
		p.Children = append(p.Children, a.ID)
	}
	return a
}

func (g *Graph) AddNode(area AreaID, label string) *Node {
	n := &Node{ID: NodeID(len(g.Nodes)), Area: area, Label: label}
	g.Nodes = append(g.Nodes, n)
	return n
}

func (g *Graph) AddRelation(area AreaID, label string, args ...NodeID) *Relation {
	r := &Relation{ID: RelationID(len(g.Relations)), Area: area, Label: label, Args: args}
	g.Relations = append(g.Relations, r)
	return r
}

// IsAncestor reports whether a is a strict ancestor of b.
func (g *Graph) IsAncestor(a, b AreaID) bool {
	area := g.Area(b)
	if area == nil {
		return false
	}
	for parent := area.Parent; parent != RootParent; {
		if parent == a {
			return true
		}
		next := g.Area(parent)
		if next == nil {
			return false
		}
		parent = next.Parent
	}
	return false
}

// IsAncestorOrSelf reports whether a is b or a strict ancestor of b.
func (g *Graph) IsAncestorOrSelf(a, b AreaID) bool {
	return a == b || g.IsAncestor(a, b)
}

// Depth returns the number of areas strictly above a; the sheet has depth 0.
func (g *Graph) Depth(a AreaID) int {
	depth := 0
	area := g.Area(a)
	for area != nil && area.Parent != RootParent {
		depth++
		area = g.Area(area.Parent)
	}
	return depth
}

// DepthSorted returns the areas ordered shallowest first. Iterating it in
// reverse visits every child before its parent, which is what the bottom-up
// sizing pass wants; iterating forward suits the top-down placement pass.
func (g *Graph) DepthSorted() []*Area {
	sorted := make([]*Area, 0, len(g.Areas))
	queue := []AreaID{g.Root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		a := g.Area(id)
		if a == nil {
			continue
		}
		sorted = append(sorted, a)
		queue = append(queue, a.Children...)
	}
	return sorted
}

// NodesIn returns the nodes directly owned by area a, in id order.
func (g *Graph) NodesIn(a AreaID) []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Area == a {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// RelationsIn returns the relation instances directly owned by area a, in id order.
func (g *Graph) RelationsIn(a AreaID) []*Relation {
	var relations []*Relation
	for _, r := range g.Relations {
		if r.Area == a {
			relations = append(relations, r)
		}
	}
	return relations
}

// Incidences returns the relations that reference node n, each at most once,
// in id order. A relation referencing n in several argument slots still gets a
// single connector.
func (g *Graph) Incidences(n NodeID) []*Relation {
	var incident []*Relation
	for _, r := range g.Relations {
		for _, arg := range r.Args {
			if arg == n {
				incident = append(incident, r)
				break
			}
		}
	}
	return incident
}

// ArgIndex returns the first argument slot of r referencing n, or -1.
func (r *Relation) ArgIndex(n NodeID) int {
	for i, arg := range r.Args {
		if arg == n {
			return i
		}
	}
	return -1
}

func (id AreaID) String() string {
	return fmt.Sprintf("area-%d", int(id))
}

func (id NodeID) String() string {
	return fmt.Sprintf("node-%d", int(id))
}

func (id RelationID) String() string {
	return fmt.Sprintf("relation-%d", int(id))
}
