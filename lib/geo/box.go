package geo

import (
	"fmt"
	"math"
)

type Box struct {
	TopLeft *Point
	Width   float64
	Height  float64
}

func NewBox(tl *Point, width, height float64) *Box {
	return &Box{
		TopLeft: tl,
		Width:   width,
		Height:  height,
	}
}

func (b *Box) Copy() *Box {
	if b == nil {
		return nil
	}
	return NewBox(b.TopLeft.Copy(), b.Width, b.Height)
}

func (b *Box) Center() *Point {
	return NewPoint(b.TopLeft.X+b.Width/2, b.TopLeft.Y+b.Height/2)
}

// Contains reports whether p is strictly inside b (points on the border are outside)
func (b *Box) Contains(p *Point) bool {
	return p.X > b.TopLeft.X &&
		p.X < b.TopLeft.X+b.Width &&
		p.Y > b.TopLeft.Y &&
		p.Y < b.TopLeft.Y+b.Height
}

// ContainsBox reports whether other lies fully inside b (borders may touch)
func (b *Box) ContainsBox(other *Box) bool {
	return other.TopLeft.X >= b.TopLeft.X &&
		other.TopLeft.Y >= b.TopLeft.Y &&
		other.TopLeft.X+other.Width <= b.TopLeft.X+b.Width &&
		other.TopLeft.Y+other.Height <= b.TopLeft.Y+b.Height
}

func (b *Box) Overlaps(other *Box) bool {
	if b.TopLeft.X+b.Width <= other.TopLeft.X || other.TopLeft.X+other.Width <= b.TopLeft.X {
		return false
	}
	if b.TopLeft.Y+b.Height <= other.TopLeft.Y || other.TopLeft.Y+other.Height <= b.TopLeft.Y {
		return false
	}
	return true
}

// Expanded returns b padded outward on all four sides (negative padding shrinks)
func (b *Box) Expanded(padding float64) *Box {
	return NewBox(
		NewPoint(b.TopLeft.X-padding, b.TopLeft.Y-padding),
		b.Width+2*padding,
		b.Height+2*padding,
	)
}

// Corners returns the four corners clockwise from TopLeft
func (b *Box) Corners() []*Point {
	tl := b.TopLeft
	tr := NewPoint(tl.X+b.Width, tl.Y)
	br := NewPoint(tr.X, tr.Y+b.Height)
	bl := NewPoint(tl.X, br.Y)
	return []*Point{tl.Copy(), tr, br, bl}
}

func (b *Box) Intersections(s Segment) []*Point {
	pts := []*Point{}

	corners := b.Corners()
	tl, tr, br, bl := corners[0], corners[1], corners[2], corners[3]

	if p := IntersectionPoint(s.Start, s.End, tl, tr); p != nil {
		pts = append(pts, p)
	}
	if p := IntersectionPoint(s.Start, s.End, tr, br); p != nil {
		pts = append(pts, p)
	}
	if p := IntersectionPoint(s.Start, s.End, br, bl); p != nil {
		pts = append(pts, p)
	}
	if p := IntersectionPoint(s.Start, s.End, bl, tl); p != nil {
		pts = append(pts, p)
	}
	return pts
}

// ClosestIntersection returns the border intersection nearest to s.Start, or nil
// if the segment misses b entirely
func (b *Box) ClosestIntersection(s Segment) *Point {
	var closest *Point
	minDist := math.Inf(1)
	for _, p := range b.Intersections(s) {
		d := EuclideanDistance(s.Start.X, s.Start.Y, p.X, p.Y)
		if d < minDist {
			minDist = d
			closest = p
		}
	}
	return closest
}

func (b *Box) PerimeterLength() float64 {
	return 2 * (b.Width + b.Height)
}

// PointOnPerimeter maps a distance along the border, measured clockwise from
// TopLeft, to the point at that distance. The distance wraps modulo the
// perimeter length.
func (b *Box) PointOnPerimeter(distance float64) *Point {
	perimeter := b.PerimeterLength()
	d := math.Mod(distance, perimeter)
	if d < 0 {
		d += perimeter
	}

	tl := b.TopLeft
	// top edge, left to right
	if d <= b.Width {
		return NewPoint(tl.X+d, tl.Y)
	}
	d -= b.Width
	// right edge, top to bottom
	if d <= b.Height {
		return NewPoint(tl.X+b.Width, tl.Y+d)
	}
	d -= b.Height
	// bottom edge, right to left
	if d <= b.Width {
		return NewPoint(tl.X+b.Width-d, tl.Y+b.Height)
	}
	d -= b.Width
	// left edge, bottom to top
	return NewPoint(tl.X, tl.Y+b.Height-d)
}

func (b *Box) ToString() string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("{TopLeft: %s, Width: %.0f, Height: %.0f}", b.TopLeft.ToString(), b.Width, b.Height)
}
