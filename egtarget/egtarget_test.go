package egtarget_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peircelab/eglayout/eggraph"
	"github.com/peircelab/eglayout/egtarget"
	"github.com/peircelab/eglayout/lib/geo"
)

func TestBoundingBox(t *testing.T) {
	l := egtarget.NewLayout(0)
	l.Add(&egtarget.Element{
		ID:   "area-0",
		Kind: egtarget.KindArea,
		Box:  geo.NewBox(geo.NewPoint(10, 10), 100, 50),
	})
	l.Add(&egtarget.Element{
		ID:    "connector-0-0",
		Kind:  egtarget.KindConnector,
		Route: geo.Route{geo.NewPoint(0, 20), geo.NewPoint(150, 20)},
	})

	bounds := l.BoundingBox()
	assert.Equal(t, 0., bounds.TopLeft.X)
	assert.Equal(t, 10., bounds.TopLeft.Y)
	assert.Equal(t, 150., bounds.Width)
	assert.Equal(t, 50., bounds.Height)

	assert.Nil(t, egtarget.NewLayout(0).BoundingBox())
}

func TestFitToCanvasScalesDown(t *testing.T) {
	l := egtarget.NewLayout(0)
	l.Add(&egtarget.Element{
		ID:   "area-0",
		Kind: egtarget.KindArea,
		Box:  geo.NewBox(geo.NewPoint(100, 100), 800, 400),
	})

	scale := l.FitToCanvas(400, 400)
	assert.Equal(t, 0.5, scale)

	box := l.Get("area-0").Box
	assert.Equal(t, 0., box.TopLeft.X)
	assert.Equal(t, 0., box.TopLeft.Y)
	assert.Equal(t, 400., box.Width)
	assert.Equal(t, 200., box.Height)
}

func TestFitToCanvasNeverUpscales(t *testing.T) {
	l := egtarget.NewLayout(0)
	l.Add(&egtarget.Element{
		ID:   "area-0",
		Kind: egtarget.KindArea,
		Box:  geo.NewBox(geo.NewPoint(0, 0), 10, 10),
	})

	scale := l.FitToCanvas(1000, 1000)
	assert.Equal(t, 1., scale)
	assert.Equal(t, 10., l.Get("area-0").Box.Width)
}

func TestCloneIsIndependent(t *testing.T) {
	l := egtarget.NewLayout(7)
	l.Add(&egtarget.Element{
		ID:    "connector-0-0",
		Kind:  egtarget.KindConnector,
		Route: geo.Route{geo.NewPoint(0, 0), geo.NewPoint(10, 0)},
	})

	c := l.Clone()
	c.Get("connector-0-0").Route[0].X = 99

	assert.Equal(t, 0., l.Get("connector-0-0").Route[0].X)
	assert.Equal(t, int64(7), c.Seed)
}

func TestSyncConnectorBox(t *testing.T) {
	el := &egtarget.Element{
		ID:    egtarget.ConnectorID(eggraph.NodeID(1), eggraph.RelationID(2)),
		Kind:  egtarget.KindConnector,
		Route: geo.Route{geo.NewPoint(5, 5), geo.NewPoint(25, 15)},
	}
	el.Sync()

	assert.Equal(t, "connector-1-2", el.ID)
	assert.Equal(t, 5., el.Box.TopLeft.X)
	assert.Equal(t, 20., el.Box.Width)
	assert.Equal(t, 10., el.Box.Height)
}
