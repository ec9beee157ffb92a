// Package list implements a virtualized list engine: it maps a keyed data
// source onto a bounded set of reusable cells, laying out only the visible
// window for fixed-size cells and walking the data in time-sliced passes for
// variable-size cells.
//
// An Engine is driven from a single goroutine. Render and Resume must not be
// called concurrently.
package list

import (
	"slices"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

// Continuation is returned by Render and Resume while a variable-size pass
// has more slices to run. The host should call Resume with it after Delay.
type Continuation struct {
	pass  *Pass
	Delay time.Duration
}

// Pass exposes the progress of the suspended pass.
func (c *Continuation) Pass() *Pass { return c.pass }

// Engine orchestrates the cell pool, geometry, and scheduler against a data
// source. It owns the pool and the live-cell index.
type Engine struct {
	cfg  Config
	view View
	log  logr.Logger

	pool  *Pool
	cells map[string]Cell

	// Change notifications only record intent; Render applies them.
	needsSort bool
	removed   map[string]struct{}

	viewport   Viewport
	opts       RenderOpts
	cellWidth  int
	cellHeight int

	sched *Scheduler
	pass  *Pass

	selected  datasource.Item
	selection *Selection

	unsubscribe []func()
}

// New validates cfg and returns an engine drawing into view.
func New(cfg Config, view View) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		view:    view,
		pool:    NewPool(),
		cells:   make(map[string]Cell),
		removed: make(map[string]struct{}),
		sched:   NewScheduler(cfg.SliceMinItems, cfg.SliceBudget, cfg.ResumeDelay, cfg.Clock),
	}
	e.apply(Config{}, cfg)
	return e, nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config { return e.cfg }

// Configure merges options: update mutates a copy of the current config,
// which is validated and then applied. Changing the data source rebinds the
// change subscriptions and releases every live cell.
func (e *Engine) Configure(update func(*Config)) error {
	next := e.cfg
	if update != nil {
		update(&next)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	e.apply(e.cfg, next)
	return nil
}

func (e *Engine) apply(prev, next Config) {
	e.cfg = next
	e.log = next.Logger
	e.sched.MinItems = next.SliceMinItems
	e.sched.Budget = next.SliceBudget
	e.sched.Delay = next.ResumeDelay
	if next.Clock != nil {
		e.sched.now = next.Clock
	}

	if prev.FixedSize != next.FixedSize || prev.Tiled != next.Tiled || prev.Spacing != next.Spacing {
		e.InvalidateLayout()
	}

	dsChanged := prev.DataSource != next.DataSource
	if dsChanged {
		e.unbind()
		e.cancelPass()
		e.releaseAll()
		clear(e.removed)
		e.selected = nil
		e.InvalidateLayout()
		if next.DataSource != nil {
			e.bindDataSource(next.DataSource)
			e.needsSort = true
		}
	}

	if next.Sorter != nil {
		if s, ok := next.DataSource.(datasource.Sortable); ok {
			s.SetSorter(next.Sorter)
			e.needsSort = true
		}
	}

	if !next.Recycle {
		e.pool.Drain(destroyCell)
	}

	if dsChanged || prev.Selectable != next.Selectable {
		if e.selection != nil {
			e.selection.Close()
			e.selection = nil
		}
		if next.Selectable != SelectNone {
			e.selection = NewSelection(next.DataSource, next.Selectable)
		}
	}
}

func (e *Engine) bindDataSource(ds datasource.Source) {
	e.unsubscribe = append(e.unsubscribe,
		ds.Subscribe(datasource.EventUpdate, e.onUpdate),
		ds.Subscribe(datasource.EventRemove, e.onRemove),
	)
}

func (e *Engine) unbind() {
	for _, fn := range e.unsubscribe {
		fn()
	}
	e.unsubscribe = nil
}

func (e *Engine) onUpdate(id string, item datasource.Item) {
	if cell, ok := e.cells[id]; ok {
		cell.SetData(item, id)
	}
	e.MarkDirty()
}

func (e *Engine) onRemove(id string, _ datasource.Item) {
	e.removed[id] = struct{}{}
	e.MarkDirty()
}

// MarkDirty schedules a sort for the next render and asks the view for a
// repaint. Any number of calls between renders cost one sort.
func (e *Engine) MarkDirty() {
	e.needsSort = true
	if e.view != nil {
		e.view.NeedsRepaint()
	}
}

// Dirty reports whether the next render will sort.
func (e *Engine) Dirty() bool { return e.needsSort }

// PendingRemovals returns the number of removals waiting for the next render.
func (e *Engine) PendingRemovals() int { return len(e.removed) }

// InvalidateLayout forgets the measured fixed-size dimensions so the next
// render measures the first item again.
func (e *Engine) InvalidateLayout() {
	e.cellWidth, e.cellHeight = 0, 0
}

// Render lays out the window for vp. Fixed-size layouts complete
// synchronously and return a nil continuation. Variable-size layouts run one
// slice and return a continuation while more remain; any earlier pass is
// invalidated.
func (e *Engine) Render(vp Viewport) (*Continuation, error) {
	ds := e.cfg.DataSource
	if ds == nil {
		return nil, nil
	}
	if e.cfg.CellFactory == nil {
		return nil, ErrNoCellFactory
	}
	e.viewport = vp

	if e.needsSort {
		e.needsSort = false
		ds.Sort()
	}
	e.purgeRemoved()

	if ds.Len() == 0 {
		e.cancelPass()
		e.releaseAll()
		e.opts, _ = ComputeGeometry(GeometryInput{Viewport: vp})
		if e.view != nil {
			e.view.SetContentHeight(0)
		}
		return nil, nil
	}

	if e.cfg.FixedSize {
		e.cancelPass()
		e.renderFixed(vp)
		return nil, nil
	}
	return e.renderVariable(vp)
}

// Resume runs the next slice of a suspended variable-size pass.
func (e *Engine) Resume(c *Continuation) (*Continuation, error) {
	if c == nil {
		return nil, nil
	}
	return e.advance(c.pass)
}

// Drain runs a suspended pass to completion without waiting between slices.
func (e *Engine) Drain(c *Continuation) error {
	var err error
	for c != nil {
		if c, err = e.Resume(c); err != nil {
			return err
		}
	}
	return nil
}

// InFlight reports whether a variable-size pass is suspended.
func (e *Engine) InFlight() bool { return e.pass != nil }

func (e *Engine) renderFixed(vp Viewport) {
	ds := e.cfg.DataSource
	if e.cellHeight <= 0 || (e.cfg.Tiled && e.cellWidth <= 0) {
		if !e.measure() {
			e.log.V(1).Info("skipping render, cell geometry unavailable", "items", ds.Len())
			return
		}
	}

	opts, err := ComputeGeometry(GeometryInput{
		Viewport:     vp,
		NumItems:     ds.Len(),
		FixedSize:    true,
		Tiled:        e.cfg.Tiled,
		CellWidth:    e.cellWidth,
		CellHeight:   e.cellHeight,
		RenderMargin: e.cfg.RenderMargin,
		Spacing:      e.cfg.Spacing,
	})
	if err != nil {
		e.log.V(1).Info("skipping render", "reason", err.Error())
		return
	}
	e.opts = opts
	if e.view != nil {
		e.view.SetContentHeight(opts.NumRows * opts.FullHeight)
	}

	type slot struct {
		index int
		id    string
		item  datasource.Item
	}
	key := ds.Key()
	window := make([]slot, 0, opts.End-opts.Start)
	keep := make(map[string]struct{}, opts.End-opts.Start)
	for i := opts.Start; i < opts.End; i++ {
		item, ok := ds.ItemAt(i)
		if !ok {
			break
		}
		id, ok := datasource.IDOf(item, key)
		if !ok {
			continue
		}
		window = append(window, slot{index: i, id: id, item: item})
		keep[id] = struct{}{}
	}

	// Release first so cells leaving the window can serve the ones entering it.
	for id, cell := range e.cells {
		if _, ok := keep[id]; !ok {
			e.release(cell)
		}
	}

	next := make(map[string]Cell, len(window))
	for _, s := range window {
		cell, ok := e.cells[s.id]
		if !ok {
			if cell = e.obtain(s.item, s.id); cell == nil {
				continue
			}
		}
		next[s.id] = cell
		if e.view != nil {
			e.view.AddCell(cell)
		}
		cell.SetPosition(opts.gridPosition(s.index, e.cfg.Tiled, vp.Width))
		cell.NeedsRepaint()
	}
	e.cells = next
}

// measure sizes the cell of the first item. The cell stays live; it is
// released by the window pass if index 0 is not visible.
func (e *Engine) measure() bool {
	ds := e.cfg.DataSource
	item, ok := ds.ItemAt(0)
	if !ok {
		return false
	}
	id, ok := datasource.IDOf(item, ds.Key())
	if !ok {
		return false
	}
	cell, ok := e.cells[id]
	if !ok {
		if cell = e.obtain(item, id); cell == nil {
			return false
		}
		e.cells[id] = cell
	}
	w, h := cell.Width(), cell.Height()
	if h <= 0 || (e.cfg.Tiled && w <= 0) {
		return false
	}
	e.cellWidth, e.cellHeight = w, h
	return true
}

func (e *Engine) renderVariable(vp Viewport) (*Continuation, error) {
	ds := e.cfg.DataSource
	e.opts, _ = ComputeGeometry(GeometryInput{
		Viewport:     vp,
		NumItems:     ds.Len(),
		RenderMargin: e.cfg.RenderMargin,
	})
	e.pass = e.sched.Begin()
	e.log.V(1).Info("variable pass started", "items", ds.Len())
	return e.advance(e.pass)
}

func (e *Engine) advance(p *Pass) (*Continuation, error) {
	done, err := e.sched.RunSlice(p, e.layoutOne)
	if err != nil {
		return nil, err
	}
	if !done {
		return &Continuation{pass: p, Delay: e.sched.Delay}, nil
	}
	if e.pass == p {
		e.pass = nil
	}
	if e.view != nil {
		e.view.SetContentHeight(p.Y())
	}
	e.log.V(1).Info("variable pass finished", "items", p.Next(), "height", p.Y())
	return nil, nil
}

// layoutOne binds and positions the cell for index i at y. It reads the
// engine's current viewport and data, so a resize between slices only affects
// the items laid out after it.
func (e *Engine) layoutOne(i, y int) (int, bool) {
	ds := e.cfg.DataSource
	if ds == nil {
		return 0, false
	}
	item, ok := ds.ItemAt(i)
	if !ok {
		return 0, false
	}
	id, ok := datasource.IDOf(item, ds.Key())
	if !ok {
		return 0, true
	}
	cell, ok := e.cells[id]
	if !ok {
		if cell = e.obtain(item, id); cell == nil {
			return 0, true
		}
		e.cells[id] = cell
	}
	if e.view != nil {
		e.view.AddCell(cell)
	}
	cell.SetPosition(Position{X: 0, Y: y, Width: e.viewport.Width})
	cell.NeedsRepaint()
	return max(cell.Height(), 0), true
}

// obtain returns a bound cell from the pool or the factory.
func (e *Engine) obtain(item datasource.Item, id string) Cell {
	var cell Cell
	if e.cfg.Recycle {
		cell, _ = e.pool.Acquire()
	}
	if cell == nil {
		if e.cfg.CellFactory == nil {
			return nil
		}
		if cell = e.cfg.CellFactory(item, e.pool); cell == nil {
			return nil
		}
	}
	cell.SetData(item, id)
	return cell
}

// release hides cell and, when recycling, resets it into the pool. The caller
// drops it from the live index.
func (e *Engine) release(cell Cell) {
	cell.Remove()
	if e.cfg.Recycle {
		cell.Recycle()
		e.pool.Release(cell)
	}
}

func (e *Engine) releaseAll() {
	for id, cell := range e.cells {
		e.release(cell)
		delete(e.cells, id)
	}
}

// purgeRemoved releases the cells of removed items that are still gone.
func (e *Engine) purgeRemoved() {
	ds := e.cfg.DataSource
	for id := range e.removed {
		if ds != nil {
			if _, back := ds.ItemByID(id); back {
				continue
			}
		}
		if cell, ok := e.cells[id]; ok {
			e.release(cell)
			delete(e.cells, id)
		}
		if e.selected != nil && ds != nil {
			if sid, ok := datasource.IDOf(e.selected, ds.Key()); ok && sid == id {
				e.selected = nil
			}
		}
	}
	clear(e.removed)
}

func (e *Engine) cancelPass() {
	if e.pass != nil {
		e.sched.Cancel()
		e.pass = nil
	}
}

// RenderOpts returns the geometry of the last render.
func (e *Engine) RenderOpts() RenderOpts { return e.opts }

// SetSelected records the selected item.
func (e *Engine) SetSelected(item datasource.Item) { e.selected = item }

// Selected returns the item recorded by SetSelected.
func (e *Engine) Selected() datasource.Item { return e.selected }

// Selection returns the selection helper, or nil when Selectable is
// SelectNone.
func (e *Engine) Selection() *Selection { return e.selection }

// CellByID returns the live cell bound to id.
func (e *Engine) CellByID(id string) (Cell, bool) {
	c, ok := e.cells[id]
	return c, ok
}

// LiveIDs returns the ids with live cells, sorted.
func (e *Engine) LiveIDs() []string {
	ids := make([]string, 0, len(e.cells))
	for id := range e.cells {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Pool returns the engine's idle cell pool.
func (e *Engine) Pool() *Pool { return e.pool }

// Close detaches the engine from its data source, releases live cells, and
// destroys the pool.
func (e *Engine) Close() {
	e.unbind()
	e.cancelPass()
	e.releaseAll()
	e.pool.Drain(destroyCell)
	if e.selection != nil {
		e.selection.Close()
		e.selection = nil
	}
}

func destroyCell(c Cell) {
	if d, ok := c.(Destroyer); ok {
		d.Destroy()
	}
}
