package egroute

import (
	"testing"

	"github.com/peircelab/eglayout/lib/geo"
)

func TestRouteStraightWhenClear(t *testing.T) {
	vr := NewVisibilityRouter()
	route := vr.Route(geo.NewPoint(0, 0), geo.NewPoint(100, 0), nil)

	if len(route) != 2 {
		t.Fatalf("Expected a 2-point route, got %d points", len(route))
	}
	if !route[0].Equals(geo.NewPoint(0, 0)) || !route[1].Equals(geo.NewPoint(100, 0)) {
		t.Fatalf("Expected endpoints preserved, got %s", route.ToString())
	}
}

func TestRouteAroundObstacle(t *testing.T) {
	vr := NewVisibilityRouter()
	obstacle := geo.NewBox(geo.NewPoint(40, -20), 20, 40)

	route := vr.Route(geo.NewPoint(0, 0), geo.NewPoint(100, 0), []*geo.Box{obstacle})

	if len(route) < 3 {
		t.Fatalf("Expected a detour, got %s", route.ToString())
	}
	for i := 0; i < len(route)-1; i++ {
		if passesThrough(route[i], route[i+1], obstacle) {
			t.Fatalf("Segment %d passes through the obstacle: %s", i, route.ToString())
		}
	}
	if !route[0].Equals(geo.NewPoint(0, 0)) || !route[len(route)-1].Equals(geo.NewPoint(100, 0)) {
		t.Fatalf("Expected endpoints preserved, got %s", route.ToString())
	}
}

func TestRouteFallsBackWhenEnclosed(t *testing.T) {
	vr := NewVisibilityRouter()
	// box the start in completely
	walls := []*geo.Box{
		geo.NewBox(geo.NewPoint(-30, -30), 60, 10),
		geo.NewBox(geo.NewPoint(-30, 20), 60, 10),
		geo.NewBox(geo.NewPoint(-30, -30), 10, 60),
		geo.NewBox(geo.NewPoint(20, -30), 10, 60),
	}

	route := vr.Route(geo.NewPoint(0, 0), geo.NewPoint(200, 0), walls)

	if len(route) != 2 {
		t.Fatalf("Expected the straight-segment fallback, got %s", route.ToString())
	}
}

func TestSegmentBlocked(t *testing.T) {
	obstacle := geo.NewBox(geo.NewPoint(10, 10), 20, 20)
	obstacles := []*geo.Box{obstacle}

	if !segmentBlocked(geo.NewPoint(0, 20), geo.NewPoint(40, 20), obstacles) {
		t.Fatal("Expected a crossing segment to be blocked")
	}
	if segmentBlocked(geo.NewPoint(0, 0), geo.NewPoint(40, 0), obstacles) {
		t.Fatal("Expected a clear segment not to be blocked")
	}
	if segmentBlocked(geo.NewPoint(0, 10), geo.NewPoint(40, 10), obstacles) {
		t.Fatal("Expected a border-grazing segment not to be blocked")
	}
}

func TestPassesThrough(t *testing.T) {
	rect := geo.NewBox(geo.NewPoint(10, 10), 20, 20)

	// cutting straight across
	if !passesThrough(geo.NewPoint(0, 20), geo.NewPoint(40, 20), rect) {
		t.Fatal("Expected a crossing segment to pass through")
	}
	// entering and stopping inside is legal
	if passesThrough(geo.NewPoint(0, 20), geo.NewPoint(20, 20), rect) {
		t.Fatal("Expected a segment ending inside not to pass through")
	}
	// terminating on the border is legal
	if passesThrough(geo.NewPoint(0, 20), geo.NewPoint(10, 20), rect) {
		t.Fatal("Expected a segment ending on the border not to pass through")
	}
	// missing entirely
	if passesThrough(geo.NewPoint(0, 0), geo.NewPoint(40, 0), rect) {
		t.Fatal("Expected a clear segment not to pass through")
	}
}
