package ui

import (
	"slices"
	"strings"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/kvlist/pkg/list"
)

// Canvas is the list.View the engine places cells on. It owns no layout;
// Draw clips the attached cells to a viewport.
type Canvas struct {
	cells         []Drawable
	attached      map[Drawable]struct{}
	contentHeight int
	repaint       bool
}

var _ list.View = (*Canvas)(nil)

// NewCanvas returns an empty canvas.
func NewCanvas() *Canvas { return &Canvas{attached: make(map[Drawable]struct{})} }

// AddCell attaches c. Cells that cannot draw themselves are ignored.
func (v *Canvas) AddCell(c list.Cell) {
	d, ok := c.(Drawable)
	if !ok {
		return
	}
	if !d.Attached() {
		d.attach()
	}
	if _, ok := v.attached[d]; !ok {
		v.attached[d] = struct{}{}
		v.cells = append(v.cells, d)
	}
}

func (v *Canvas) SetContentHeight(h int) { v.contentHeight = max(h, 0) }

// ContentHeight is the height last reported by the engine.
func (v *Canvas) ContentHeight() int { return v.contentHeight }

func (v *Canvas) NeedsRepaint() { v.repaint = true }

// TakeRepaint reports and clears a pending repaint request.
func (v *Canvas) TakeRepaint() bool {
	r := v.repaint
	v.repaint = false
	return r
}

// Len returns the number of attached cells.
func (v *Canvas) Len() int {
	v.prune()
	return len(v.cells)
}

func (v *Canvas) prune() {
	v.cells = slices.DeleteFunc(v.cells, func(d Drawable) bool {
		if d.Attached() {
			return false
		}
		delete(v.attached, d)
		return true
	})
}

type segment struct {
	x    int
	line Line
}

// Draw returns vp.Height rows, each vp.Width columns wide, showing the part
// of the content the viewport covers.
func (v *Canvas) Draw(vp list.Viewport) []string {
	v.prune()
	if vp.Height <= 0 {
		return nil
	}
	rows := make([][]segment, vp.Height)
	for _, c := range v.cells {
		pos := c.Position()
		if pos.Y-vp.Y >= vp.Height || pos.Y+max(c.Height(), 1) <= vp.Y {
			continue
		}
		for j, l := range c.Lines() {
			y := pos.Y + j - vp.Y
			if y < 0 {
				continue
			}
			if y >= vp.Height {
				break
			}
			rows[y] = append(rows[y], segment{x: pos.X - vp.X, line: l})
		}
	}

	out := make([]string, vp.Height)
	for i, segs := range rows {
		slices.SortStableFunc(segs, func(a, b segment) int { return a.x - b.x })
		var b strings.Builder
		col := 0
		for _, s := range segs {
			if s.x < col || s.x >= vp.Width {
				continue
			}
			b.WriteString(strings.Repeat(" ", s.x-col))
			col = s.x
			text := s.line.Text
			if w := runewidth.StringWidth(text); col+w > vp.Width {
				text = runewidth.Truncate(text, vp.Width-col, "")
			}
			b.WriteString(s.line.Style.Render(text))
			col += runewidth.StringWidth(text)
		}
		if col < vp.Width {
			b.WriteString(strings.Repeat(" ", vp.Width-col))
		}
		out[i] = b.String()
	}
	return out
}
