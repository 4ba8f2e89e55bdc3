package geo

import (
	"testing"
)

func TestBoxContains(t *testing.T) {
	b := NewBox(NewPoint(0, 0), 10, 10)

	if !b.Contains(NewPoint(5, 5)) {
		t.Fatal("Expected interior point to be contained")
	}
	if b.Contains(NewPoint(0, 5)) {
		t.Fatal("Expected border point not to be contained")
	}
	if b.Contains(NewPoint(15, 5)) {
		t.Fatal("Expected outside point not to be contained")
	}
}

func TestBoxOverlaps(t *testing.T) {
	b := NewBox(NewPoint(0, 0), 10, 10)

	if !b.Overlaps(NewBox(NewPoint(5, 5), 10, 10)) {
		t.Fatal("Expected overlapping boxes to overlap")
	}
	if b.Overlaps(NewBox(NewPoint(10, 0), 10, 10)) {
		t.Fatal("Expected touching boxes not to overlap")
	}
	if b.Overlaps(NewBox(NewPoint(20, 20), 5, 5)) {
		t.Fatal("Expected disjoint boxes not to overlap")
	}
}

func TestBoxContainsBox(t *testing.T) {
	b := NewBox(NewPoint(0, 0), 10, 10)

	if !b.ContainsBox(NewBox(NewPoint(2, 2), 5, 5)) {
		t.Fatal("Expected nested box to be contained")
	}
	if !b.ContainsBox(NewBox(NewPoint(0, 0), 10, 10)) {
		t.Fatal("Expected identical box to be contained")
	}
	if b.ContainsBox(NewBox(NewPoint(5, 5), 10, 10)) {
		t.Fatal("Expected overflowing box not to be contained")
	}
}

func TestBoxExpanded(t *testing.T) {
	b := NewBox(NewPoint(10, 10), 10, 10)
	e := b.Expanded(5)

	if e.TopLeft.X != 5 || e.TopLeft.Y != 5 {
		t.Fatalf("Expected expanded TopLeft (5, 5), got %s", e.TopLeft.ToString())
	}
	if e.Width != 20 || e.Height != 20 {
		t.Fatalf("Expected expanded size 20x20, got %vx%v", e.Width, e.Height)
	}
}

func TestBoxIntersections(t *testing.T) {
	b := NewBox(NewPoint(0, 0), 10, 10)

	// segment cutting straight through
	pts := b.Intersections(Segment{NewPoint(-5, 5), NewPoint(15, 5)})
	if len(pts) != 2 {
		t.Fatalf("Expected 2 intersections, got %d", len(pts))
	}

	// segment ending inside
	pts = b.Intersections(Segment{NewPoint(-5, 5), NewPoint(5, 5)})
	if len(pts) != 1 {
		t.Fatalf("Expected 1 intersection, got %d", len(pts))
	}

	// segment missing the box
	pts = b.Intersections(Segment{NewPoint(-5, 20), NewPoint(15, 20)})
	if len(pts) != 0 {
		t.Fatalf("Expected no intersections, got %d", len(pts))
	}
}

func TestClosestIntersection(t *testing.T) {
	b := NewBox(NewPoint(0, 0), 10, 10)

	p := b.ClosestIntersection(Segment{NewPoint(-5, 5), NewPoint(15, 5)})
	if p == nil {
		t.Fatal("Expected an intersection")
	}
	if p.X != 0 || p.Y != 5 {
		t.Fatalf("Expected closest intersection (0, 5), got %s", p.ToString())
	}
}

func TestPointOnPerimeter(t *testing.T) {
	b := NewBox(NewPoint(0, 0), 10, 20)

	for _, tc := range []struct {
		distance float64
		want     Point
	}{
		{0, Point{0, 0}},
		{5, Point{5, 0}},
		{10, Point{10, 0}},
		{20, Point{10, 10}},
		{30, Point{10, 20}},
		{35, Point{5, 20}},
		{40, Point{0, 20}},
		{50, Point{0, 10}},
		{60, Point{0, 0}},
		{-10, Point{0, 10}},
	} {
		got := b.PointOnPerimeter(tc.distance)
		if got.X != tc.want.X || got.Y != tc.want.Y {
			t.Fatalf("PointOnPerimeter(%v): expected %s, got %s", tc.distance, tc.want.ToString(), got.ToString())
		}
	}
}
