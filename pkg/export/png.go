package export

import (
	"fmt"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/checktree/pkg/model"
)

// WritePNG renders the same diagram as WriteSVG to a PNG image, using the
// built-in 7x13 bitmap font so no font files are needed.
func WritePNG(w io.Writer, forest []model.Snapshot) error {
	l := layoutForest(forest)

	dc := gg.NewContext(l.width, l.height)
	dc.SetHexColor("#FAFAFA")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor("#6272A4")
	dc.SetLineWidth(1)
	for _, p := range l.items {
		if p.parent < 0 {
			continue
		}
		x1, y1, x2, y2, x3, y3 := l.connector(p)
		dc.DrawLine(float64(x1), float64(y1), float64(x2), float64(y2))
		dc.DrawLine(float64(x2), float64(y2), float64(x3), float64(y3))
		dc.Stroke()
	}

	for _, p := range l.items {
		x, y := float64(l.boxX(p.depth)), float64(l.boxY(p.row))
		dc.DrawRectangle(x, y, boxSize, boxSize)
		switch {
		case p.node.Checked:
			dc.SetHexColor("#50FA7B")
		case p.node.Indeterminate:
			dc.SetHexColor("#FFB86C")
		default:
			dc.SetHexColor("#FFFFFF")
		}
		dc.FillPreserve()
		dc.SetHexColor("#44475A")
		dc.SetLineWidth(1.5)
		dc.Stroke()

		dc.SetHexColor("#1E1F29")
		switch {
		case p.node.Checked:
			dc.MoveTo(x+2, y+boxSize/2)
			dc.LineTo(x+boxSize/2-1, y+boxSize-3)
			dc.LineTo(x+boxSize-2, y+2)
			dc.Stroke()
		case p.node.Indeterminate:
			dc.SetLineWidth(2)
			dc.DrawLine(x+3, y+boxSize/2, x+boxSize-3, y+boxSize/2)
			dc.Stroke()
		}
		dc.SetLineWidth(1)

		if p.node.Checked {
			dc.SetHexColor("#6C6C6C")
		}
		dc.DrawString(diagramLabel(p.node.Label), x+boxSize+labelGap, y+boxSize-1)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
