package list

import (
	"time"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

// fakeCell reports the height stored in the item's "h" field, or defaultH.
type fakeCell struct {
	serial   int
	id       string
	item     datasource.Item
	pos      Position
	w        int
	defaultH int

	removed   int
	recycled  int
	repaints  int
	destroyed bool
}

func (c *fakeCell) SetData(item datasource.Item, id string) {
	c.item, c.id = item, id
}

func (c *fakeCell) SetPosition(p Position) { c.pos = p }
func (c *fakeCell) Width() int              { return c.w }

func (c *fakeCell) Height() int {
	if h, ok := c.item["h"].(int); ok {
		return h
	}
	return c.defaultH
}

func (c *fakeCell) Remove()       { c.removed++ }
func (c *fakeCell) NeedsRepaint() { c.repaints++ }
func (c *fakeCell) Destroy()      { c.destroyed = true }

func (c *fakeCell) Recycle() {
	c.recycled++
	c.item, c.id = nil, ""
}

type fakeFactory struct {
	w, h    int
	created []*fakeCell
}

func (f *fakeFactory) New(item datasource.Item, _ *Pool) Cell {
	c := &fakeCell{serial: len(f.created), w: f.w, defaultH: f.h}
	f.created = append(f.created, c)
	return c
}

type fakeView struct {
	added         []Cell
	contentHeight int
	repaints      int
}

func (v *fakeView) AddCell(c Cell)          { v.added = append(v.added, c) }
func (v *fakeView) SetContentHeight(h int) { v.contentHeight = h }
func (v *fakeView) NeedsRepaint()          { v.repaints++ }

// stepClock advances by step every time it is read.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func items(n int) []datasource.Item {
	out := make([]datasource.Item, n)
	for i := range out {
		out[i] = datasource.Item{"id": i}
	}
	return out
}

// countingSource wraps Memory to count sorts.
type countingSource struct {
	*datasource.Memory
	sorts int
}

func (s *countingSource) Sort() {
	s.sorts++
	s.Memory.Sort()
}
