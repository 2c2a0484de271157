package export

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/checktree/pkg/model"
)

const (
	svgLine      = "stroke:#6272A4;stroke-width:1;fill:none"
	svgBox       = "stroke:#44475A;stroke-width:1.5;fill:#FFFFFF"
	svgChecked   = "stroke:#2E7D32;stroke-width:1.5;fill:#50FA7B"
	svgPartial   = "stroke:#EF6C00;stroke-width:1.5;fill:#FFB86C"
	svgLabel     = "font-family:monospace;font-size:12px;fill:#1E1F29"
	svgLabelDone = "font-family:monospace;font-size:12px;fill:#6C6C6C;text-decoration:line-through"
)

// WriteSVG draws the forest as a checklist diagram: one row per node, with
// elbow connectors from each parent to its children.
func WriteSVG(w io.Writer, forest []model.Snapshot) error {
	l := layoutForest(forest)
	ew := &errWriter{w: w}

	canvas := svg.New(ew)
	canvas.Start(l.width, l.height)
	canvas.Rect(0, 0, l.width, l.height, "fill:#FAFAFA")

	for _, p := range l.items {
		if p.parent < 0 {
			continue
		}
		x1, y1, x2, y2, x3, y3 := l.connector(p)
		canvas.Polyline([]int{x1, x2, x3}, []int{y1, y2, y3}, svgLine)
	}

	for _, p := range l.items {
		x, y := l.boxX(p.depth), l.boxY(p.row)
		canvas.Gid(string(p.node.ID))
		switch {
		case p.node.Checked:
			canvas.Rect(x, y, boxSize, boxSize, svgChecked)
			canvas.Polyline(
				[]int{x + 2, x + boxSize/2 - 1, x + boxSize - 2},
				[]int{y + boxSize/2, y + boxSize - 3, y + 2},
				"stroke:#1E1F29;stroke-width:1.5;fill:none")
		case p.node.Indeterminate:
			canvas.Rect(x, y, boxSize, boxSize, svgPartial)
			canvas.Line(x+3, y+boxSize/2, x+boxSize-3, y+boxSize/2, "stroke:#1E1F29;stroke-width:2")
		default:
			canvas.Rect(x, y, boxSize, boxSize, svgBox)
		}
		style := svgLabel
		if p.node.Checked {
			style = svgLabelDone
		}
		canvas.Text(x+boxSize+labelGap, y+boxSize-1, diagramLabel(p.node.Label), style)
		canvas.Gend()
	}

	canvas.End()
	if ew.err != nil {
		return fmt.Errorf("write svg: %w", ew.err)
	}
	return nil
}

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
