// Package egtarget holds the engine's output: the spatial layout a renderer
// consumes. It is the render-ready counterpart of eggraph, carrying one
// element per logical id plus one synthesized connector element per
// (node, incident relation) pair.
package egtarget

import (
	"fmt"
	"math"
	"sort"

	"oss.terrastruct.com/util-go/go2"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/lib/geo"
)

type Kind int

const (
	KindArea Kind = iota
	KindNode
	KindRelation
	KindConnector
)

func (k Kind) String() string {
	switch k {
	case KindArea:
		return "area"
	case KindNode:
		return "node"
	case KindRelation:
		return "relation"
	case KindConnector:
		return "connector"
	}
	return fmt.Sprintf("kind-%d", int(k))
}

type Element struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	OwningArea eggraph.AreaID `json:"owningArea"`
	// Label mirrors the logical element's display label.
	Label string `json:"label,omitempty"`
	// Box is the element's bounds. For connectors it is the route's bounding
	// box, kept in sync by Sync.
	Box *geo.Box `json:"box"`
	// Route is only set on connectors.
	Route geo.Route `json:"route,omitempty"`
	// Annotation is an optional small secondary bounds, e.g. for a selection
	// handle or marker next to the element.
	Annotation *geo.Box `json:"annotation,omitempty"`
}

func (el *Element) Copy() *Element {
	c := *el
	c.Box = el.Box.Copy()
	c.Route = el.Route.Copy()
	c.Annotation = el.Annotation.Copy()
	return &c
}

// Sync recomputes a connector's Box from its Route.
func (el *Element) Sync() {
	if el.Kind != KindConnector || len(el.Route) == 0 {
		return
	}
	tl, br := el.Route.GetBoundingBox()
	el.Box = geo.NewBox(tl, br.X-tl.X, br.Y-tl.Y)
}

type Layout struct {
	Elements map[string]*Element `json:"elements"`
	// Seed is the placement seed the layout was generated with.
	Seed int64 `json:"seed"`
}

func NewLayout(seed int64) *Layout {
	return &Layout{
		Elements: make(map[string]*Element),
		Seed:     seed,
	}
}

func (l *Layout) Add(el *Element) {
	l.Elements[el.ID] = el
}

func (l *Layout) Get(id string) *Element {
	return l.Elements[id]
}

func (l *Layout) Clone() *Layout {
	c := NewLayout(l.Seed)
	for id, el := range l.Elements {
		c.Elements[id] = el.Copy()
	}
	return c
}

// OfKind returns the elements of the given kind in id order.
func (l *Layout) OfKind(k Kind) []*Element {
	var els []*Element
	for _, el := range l.Elements {
		if el.Kind == k {
			els = append(els, el)
		}
	}
	sort.Slice(els, func(i, j int) bool { return els[i].ID < els[j].ID })
	return els
}

// BoundingBox returns the smallest box containing every element, or nil for
// an empty layout.
func (l *Layout) BoundingBox() *geo.Box {
	minX := math.Inf(1)
	minY := math.Inf(1)
	maxX := math.Inf(-1)
	maxY := math.Inf(-1)

	grow := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}

	for _, el := range l.Elements {
		if el.Box != nil {
			grow(el.Box.TopLeft.X, el.Box.TopLeft.Y)
			grow(el.Box.TopLeft.X+el.Box.Width, el.Box.TopLeft.Y+el.Box.Height)
		}
		for _, p := range el.Route {
			grow(p.X, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return nil
	}
	return geo.NewBox(geo.NewPoint(minX, minY), maxX-minX, maxY-minY)
}

// FitToCanvas translates the layout to the origin and applies a uniform
// scale-down so it fits within width x height. It never upscales. The applied
// scale is returned.
func (l *Layout) FitToCanvas(width, height float64) float64 {
	bounds := l.BoundingBox()
	if bounds == nil {
		return 1
	}

	scale := 1.
	if bounds.Width > width && width > 0 {
		scale = width / bounds.Width
	}
	if bounds.Height > height && height > 0 {
		scale = go2.Min(scale, height/bounds.Height)
	}

	origin := bounds.TopLeft
	transform := func(p *geo.Point) {
		p.X = (p.X - origin.X) * scale
		p.Y = (p.Y - origin.Y) * scale
	}
	for _, el := range l.Elements {
		if el.Box != nil {
			transform(el.Box.TopLeft)
			el.Box.Width *= scale
			el.Box.Height *= scale
		}
		for _, p := range el.Route {
			transform(p)
		}
		if el.Annotation != nil {
			transform(el.Annotation.TopLeft)
			el.Annotation.Width *= scale
			el.Annotation.Height *= scale
		}
	}
	return scale
}

func AreaElementID(id eggraph.AreaID) string {
	return id.String()
}

func NodeElementID(id eggraph.NodeID) string {
	return id.String()
}

func RelationElementID(id eggraph.RelationID) string {
	return id.String()
}

// ConnectorID is the synthesized id of the connector linking node n to
// relation instance r.
func ConnectorID(n eggraph.NodeID, r eggraph.RelationID) string {
	return fmt.Sprintf("connector-%d-%d", int(n), int(r))
}
