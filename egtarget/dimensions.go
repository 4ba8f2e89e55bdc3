package egtarget

import (
	"unicode/utf8"

	"oss.terrastruct.com/util-go/go2"
)

// Fixed per-character metrics used to size relation labels. The engine does
// no real typography; a renderer that does can still draw inside these boxes.
const (
	CHAR_WIDTH    = 8.
	LABEL_HEIGHT  = 22.
	LABEL_PADDING = 6.

	// NODE_RADIUS is the drawn radius of a point node; its bounds are the
	// enclosing square.
	NODE_RADIUS = 4.
)

// LabelDimensions returns the box size for a relation's display label.
func LabelDimensions(label string) (width, height float64) {
	n := go2.Max(utf8.RuneCountInString(label), 1)
	return float64(n)*CHAR_WIDTH + 2*LABEL_PADDING, LABEL_HEIGHT
}

// NodeBoxSize is the side length of a node's bounds.
func NodeBoxSize() float64 {
	return 2 * NODE_RADIUS
}
