// Package egtransform applies interactive, topology-preserving edits to
// connector geometry. Handlers take an existing layout plus the owning
// logical graph and produce a new layout value; a disallowed edit is a
// normal, expected failure, never a panic.
package egtransform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/lib/geo"
)

type Kind int

const (
	// MoveBranch relocates a branch point along the connector's own path.
	MoveBranch Kind = iota
	// Extend attaches another group node to the connector with a new branch
	// segment.
	Extend
	// Restrict detaches a group node's connector.
	Restrict
	// Retract collapses a multi-node shared-identity group onto the target
	// connector's node.
	Retract
	// Rearrange replaces the connector's whole path, endpoints fixed.
	Rearrange
)

func (k Kind) String() string {
	switch k {
	case MoveBranch:
		return "move-branch"
	case Extend:
		return "extend"
	case Restrict:
		return "restrict"
	case Retract:
		return "retract"
	case Rearrange:
		return "rearrange"
	}
	return fmt.Sprintf("transform-%d", int(k))
}

// ErrRejected marks an edit that would violate topology or labeling
// constraints. Callers test for it with errors.Is.
var ErrRejected = errors.New("transformation rejected")

func rejectedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrRejected}, args...)...)
}

type Params struct {
	// BranchIndex selects an interior point of the path for MoveBranch.
	BranchIndex int
	// T is the target path parameter in [0,1] for MoveBranch.
	T float64
	// Node is the group node joining (Extend) or leaving (Restrict).
	Node eggraph.NodeID
	// Route is the replacement path for Rearrange.
	Route geo.Route
}

// Apply runs one edit against a copy of layout and returns the result. The
// input layout is never mutated, so a rejected edit leaves the caller's state
// exactly as it was.
func Apply(layout *egtarget.Layout, g *eggraph.Graph, kind Kind, target string, params Params) (*egtarget.Layout, error) {
	node, relation, err := parseConnectorID(target)
	if err != nil {
		return nil, err
	}
	out := layout.Clone()
	el := out.Get(target)
	if el == nil || el.Kind != egtarget.KindConnector {
		return nil, rejectedf("no connector %q in layout", target)
	}

	switch kind {
	case MoveBranch:
		err = moveBranch(el, params)
	case Extend:
		err = extend(out, g, el, relation, params)
	case Restrict:
		err = restrict(out, g, relation, params)
	case Retract:
		err = retract(out, g, node, relation)
	case Rearrange:
		err = rearrange(el, params)
	default:
		err = rejectedf("unknown transformation %s", kind)
	}
	if err != nil {
		return nil, err
	}
	el.Sync()
	return out, nil
}

// moveBranch relocates one interior path point to the point at parameter T
// along the existing path. Presentation only, so any in-range target is legal.
func moveBranch(el *egtarget.Element, params Params) error {
	if params.BranchIndex <= 0 || params.BranchIndex >= len(el.Route)-1 {
		return rejectedf("branch index %d is not an interior point of a %d-point path", params.BranchIndex, len(el.Route))
	}
	t := math.Max(0, math.Min(1, params.T))
	p, _ := el.Route.GetPointAtDistance(t * el.Route.Length())
	if p == nil {
		p = el.Route[len(el.Route)-1].Copy()
	}
	el.Route[params.BranchIndex] = p
	return nil
}

// extend adds the connector for another node of the shared-identity group,
// branching off the nearest point of the target connector's path. The node
// must already be an argument of the relation (otherwise the edit would alter
// meaning, not presentation) and must not be attached yet.
func extend(out *egtarget.Layout, g *eggraph.Graph, el *egtarget.Element, relation eggraph.RelationID, params Params) error {
	r := g.Relation(relation)
	if r == nil {
		return rejectedf("relation %s does not exist", relation)
	}
	if r.ArgIndex(params.Node) == -1 {
		return rejectedf("node %s is not reachable in the identity group of %s", params.Node, relation)
	}
	newID := egtarget.ConnectorID(params.Node, relation)
	if out.Get(newID) != nil {
		return rejectedf("node %s is already attached to %s", params.Node, relation)
	}
	nodeEl := out.Get(egtarget.NodeElementID(params.Node))
	if nodeEl == nil || nodeEl.Box == nil {
		return rejectedf("node %s has no position in the layout", params.Node)
	}

	branch := nearestPointOnRoute(el.Route, nodeEl.Box.Center())
	added := &egtarget.Element{
		ID:         newID,
		Kind:       egtarget.KindConnector,
		OwningArea: nodeEl.OwningArea,
		Route:      geo.Route{nodeEl.Box.Center(), branch},
	}
	added.Sync()
	out.Add(added)
	return nil
}

// restrict removes one group node's connector, leaving every other node's
// attachment untouched.
func restrict(out *egtarget.Layout, g *eggraph.Graph, relation eggraph.RelationID, params Params) error {
	r := g.Relation(relation)
	if r == nil {
		return rejectedf("relation %s does not exist", relation)
	}
	id := egtarget.ConnectorID(params.Node, relation)
	if out.Get(id) == nil {
		return rejectedf("node %s is not attached to %s", params.Node, relation)
	}
	delete(out.Elements, id)
	return nil
}

// retract collapses the relation's whole identity group onto the target
// connector's node. Collapsing nodes with different display labels would
// change meaning, so every group node must carry an identical label.
func retract(out *egtarget.Layout, g *eggraph.Graph, keep eggraph.NodeID, relation eggraph.RelationID) error {
	r := g.Relation(relation)
	if r == nil {
		return rejectedf("relation %s does not exist", relation)
	}
	keepNode := g.Node(keep)
	if keepNode == nil {
		return rejectedf("node %s does not exist", keep)
	}
	for _, arg := range r.Args {
		other := g.Node(arg)
		if other == nil {
			continue
		}
		if other.Label != keepNode.Label {
			return rejectedf("group labels differ: node %s is %q, node %s is %q",
				keep, keepNode.Label, other.ID, other.Label)
		}
	}
	for _, arg := range r.Args {
		if arg == keep {
			continue
		}
		delete(out.Elements, egtarget.ConnectorID(arg, relation))
	}
	return nil
}

// rearrange swaps in a caller-supplied path. Both endpoints must stay put:
// the attachment of node to relation argument is topology, not geometry.
func rearrange(el *egtarget.Element, params Params) error {
	if len(params.Route) < 2 {
		return rejectedf("replacement path needs at least 2 points, got %d", len(params.Route))
	}
	oldStart := el.Route[0]
	oldEnd := el.Route[len(el.Route)-1]
	newStart := params.Route[0]
	newEnd := params.Route[len(params.Route)-1]
	if !newStart.Equals(oldStart) {
		return rejectedf("replacement path moves the start to %s, want %s",
			newStart.ToString(), oldStart.ToString())
	}
	if !newEnd.Equals(oldEnd) {
		return rejectedf("replacement path moves the end to %s, want %s",
			newEnd.ToString(), oldEnd.ToString())
	}
	el.Route = params.Route.Copy().Dedup()
	return nil
}

func nearestPointOnRoute(route geo.Route, p *geo.Point) *geo.Point {
	if len(route) == 1 {
		return route[0].Copy()
	}
	best := route[0].Copy()
	bestDist := math.Inf(1)
	const samples = 20
	length := route.Length()
	for i := 0; i <= samples; i++ {
		cand, _ := route.GetPointAtDistance(length * float64(i) / samples)
		if cand == nil {
			continue
		}
		if d := cand.DistanceTo(p); d < bestDist {
			bestDist = d
			best = cand
		}
	}
	return best
}

func parseConnectorID(id string) (eggraph.NodeID, eggraph.RelationID, error) {
	rest := strings.TrimPrefix(id, "connector-")
	if rest == id {
		return 0, 0, rejectedf("target %q is not a connector id", id)
	}
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 {
		return 0, 0, rejectedf("target %q is not a connector id", id)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, rejectedf("target %q is not a connector id", id)
	}
	r, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, rejectedf("target %q is not a connector id", id)
	}
	return eggraph.NodeID(n), eggraph.RelationID(r), nil
}
