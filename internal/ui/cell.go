package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/list"
)

// CellState is the interactive state of the item a cell shows.
type CellState struct {
	Cursor   bool
	Selected bool
}

// CellOptions is shared by every cell of one list.
type CellOptions struct {
	Key        string
	TitleField string
	// BodyField is rendered as markdown under the title when ShowBody is set.
	BodyField string
	ShowBody  bool
	// TileWidth, when positive, draws each cell as a framed tile of that width.
	TileWidth int
	Theme     Theme
	State     func(id string) CellState
}

// Line is one row of a cell: plain text exactly as wide as the cell, and the
// style it is drawn with.
type Line struct {
	Text  string
	Style lipgloss.Style
}

// Drawable is what the Canvas needs from a cell.
type Drawable interface {
	list.Cell
	Attached() bool
	Position() list.Position
	Lines() []Line
	attach()
}

// gutter holds the cursor and selection markers.
const gutter = 2

// TextCell shows an item's title and, optionally, its markdown body.
type TextCell struct {
	opts     *CellOptions
	id       string
	item     datasource.Item
	pos      list.Position
	attached bool

	body      []string // wrapped body, valid for bodyWidth
	bodyWidth int

	repaints  int
	destroyed bool
}

var (
	_ list.Cell      = (*TextCell)(nil)
	_ list.Destroyer = (*TextCell)(nil)
	_ Drawable       = (*TextCell)(nil)
)

// NewTextCell returns an unbound cell.
func NewTextCell(opts *CellOptions) *TextCell {
	return &TextCell{opts: opts}
}

func (c *TextCell) SetData(item datasource.Item, id string) {
	c.item = item
	c.id = id
	c.bodyWidth = -1
}

func (c *TextCell) SetPosition(p list.Position) {
	if p.Width != c.pos.Width {
		c.bodyWidth = -1
	}
	c.pos = p
}

// Position returns the last assigned position.
func (c *TextCell) Position() list.Position { return c.pos }

// ID returns the bound item id.
func (c *TextCell) ID() string { return c.id }

// Item returns the bound item.
func (c *TextCell) Item() datasource.Item { return c.item }

func (c *TextCell) Width() int {
	if c.opts.TileWidth > 0 {
		return c.opts.TileWidth
	}
	if c.pos.Width > 0 {
		return c.pos.Width
	}
	return gutter + runewidth.StringWidth(c.title())
}

func (c *TextCell) Height() int {
	if c.item == nil {
		return 0
	}
	if c.opts.TileWidth > 0 {
		return 3
	}
	return 1 + len(c.bodyLines())
}

func (c *TextCell) Remove() { c.attached = false }

func (c *TextCell) NeedsRepaint() { c.repaints++ }

func (c *TextCell) Recycle() {
	c.item = nil
	c.id = ""
	c.body = nil
	c.bodyWidth = -1
}

// Destroy drops everything the cell holds.
func (c *TextCell) Destroy() {
	c.Recycle()
	c.attached = false
	c.destroyed = true
}

// Attached reports whether the cell is shown on a canvas.
func (c *TextCell) Attached() bool { return c.attached }

func (c *TextCell) attach() { c.attached = true }

func (c *TextCell) title() string {
	if v, ok := c.item[c.opts.TitleField]; ok && v != nil {
		return singleLine(fmt.Sprint(v))
	}
	return c.id
}

func (c *TextCell) bodyLines() []string {
	if !c.opts.ShowBody || c.opts.BodyField == "" || c.item == nil {
		return nil
	}
	width := c.Width() - gutter
	if c.bodyWidth == width {
		return c.body
	}
	c.bodyWidth = width
	c.body = nil
	if v, ok := c.item[c.opts.BodyField]; ok && v != nil {
		c.body = renderMarkdown(fmt.Sprint(v), width)
	}
	return c.body
}

func (c *TextCell) state() CellState {
	if c.opts.State == nil {
		return CellState{}
	}
	return c.opts.State(c.id)
}

// Lines renders the cell for its current data, position and state.
func (c *TextCell) Lines() []Line {
	if c.item == nil {
		return nil
	}
	th := c.opts.Theme
	st := c.state()
	if c.opts.TileWidth > 0 {
		return c.tileLines(st)
	}

	width := c.Width()
	marker := "  "
	switch {
	case st.Cursor && st.Selected:
		marker = ">*"
	case st.Cursor:
		marker = "> "
	case st.Selected:
		marker = " *"
	}
	titleStyle := th.Text
	switch {
	case st.Cursor:
		titleStyle = th.Cursor
	case st.Selected:
		titleStyle = th.Selected
	}
	lines := []Line{{Text: fit(marker+c.title(), width), Style: titleStyle}}
	for _, l := range c.bodyLines() {
		lines = append(lines, Line{Text: fit(strings.Repeat(" ", gutter)+l, width), Style: th.Muted})
	}
	return lines
}

func (c *TextCell) tileLines(st CellState) []Line {
	th := c.opts.Theme
	w := c.opts.TileWidth
	b := lipgloss.NormalBorder()
	if st.Cursor {
		b = lipgloss.ThickBorder()
	} else if st.Selected {
		b = lipgloss.DoubleBorder()
	}
	frame := th.Border
	if st.Cursor {
		frame = th.Cursor
	}
	inner := max(w-2, 0)
	titleStyle := th.Text
	if st.Selected {
		titleStyle = th.Selected
	}
	return []Line{
		{Text: fit(b.TopLeft+strings.Repeat(b.Top, inner)+b.TopRight, w), Style: frame},
		{Text: fit(b.Left+fit(c.title(), inner)+b.Right, w), Style: titleStyle},
		{Text: fit(b.BottomLeft+strings.Repeat(b.Bottom, inner)+b.BottomRight, w), Style: frame},
	}
}
