package export

import (
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// Diagram geometry shared by the SVG and PNG writers, in pixels.
const (
	rowHeight   = 24
	indentWidth = 24
	margin      = 16
	boxSize     = 12
	charWidth   = 7 // basicfont.Face7x13 advance
	labelGap    = 8
	maxLabel    = 60 // cells
)

// placed is one node positioned in the diagram.
type placed struct {
	node   model.Snapshot
	depth  int
	row    int
	parent int // index into layout.items, -1 for roots
}

type layout struct {
	items  []placed
	width  int
	height int
}

// layoutForest assigns every node a row in pre-order and an indent by depth.
func layoutForest(forest []model.Snapshot) layout {
	var l layout
	var walk func(nodes []model.Snapshot, depth, parent int)
	walk = func(nodes []model.Snapshot, depth, parent int) {
		for _, n := range nodes {
			idx := len(l.items)
			l.items = append(l.items, placed{node: n, depth: depth, row: idx, parent: parent})
			right := l.boxX(depth) + boxSize + labelGap + charWidth*runewidth.StringWidth(diagramLabel(n.Label))
			if right > l.width {
				l.width = right
			}
			walk(n.Children, depth+1, idx)
		}
	}
	walk(forest, 0, -1)

	l.width += margin
	if l.width < 2*margin+boxSize {
		l.width = 2*margin + boxSize
	}
	l.height = 2*margin + len(l.items)*rowHeight
	return l
}

func (l layout) boxX(depth int) int {
	return margin + depth*indentWidth
}

// boxY returns the top of the checkbox drawn on row.
func (l layout) boxY(row int) int {
	return margin + row*rowHeight + (rowHeight-boxSize)/2
}

// connector returns the elbow from a parent's checkbox down and across to
// the child's: a vertical segment then a horizontal one.
func (l layout) connector(p placed) (x1, y1, x2, y2, x3, y3 int) {
	parent := l.items[p.parent]
	x1 = l.boxX(parent.depth) + boxSize/2
	y1 = l.boxY(parent.row) + boxSize
	x2 = x1
	y2 = l.boxY(p.row) + boxSize/2
	x3 = l.boxX(p.depth)
	y3 = y2
	return
}

func diagramLabel(label string) string {
	return runewidth.Truncate(escapeLabel(label), maxLabel, "…")
}
