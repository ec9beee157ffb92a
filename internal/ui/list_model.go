package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/list"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeRows is the header plus the footer.
	chromeRows = 2
)

// ListOptions configures a ListModel.
type ListOptions struct {
	Source datasource.Source
	// Engine carries the list options; its DataSource, CellFactory and Logger
	// are filled in by the model.
	Engine     list.Config
	TitleField string
	BodyField  string
	TileWidth  int
	Theme      Theme
	Title      string
	Width      int
	Height     int
	Logger     logr.Logger
}

// RefreshMsg asks a view to re-render after its data source changed. The
// source must be mutated on the program's goroutine, e.g. from a tea.Cmd
// result handled before the RefreshMsg is sent.
type RefreshMsg struct{}

// resumeMsg re-delivers a variable-size render pass after its delay.
type resumeMsg struct {
	c *list.Continuation
}

// ListModel drives a list.Engine from a Bubble Tea program.
type ListModel struct {
	engine *list.Engine
	canvas *Canvas
	source datasource.Source
	cells  *CellOptions
	theme  Theme
	keys   KeyMap
	title  string
	log    logr.Logger

	spinner spinner.Model
	pending *list.Continuation

	width, height int
	offset        int
	cursor        int

	status   string
	err      error
	chosen   []datasource.Item
	quitting bool
}

// NewListModel builds the engine and its canvas.
func NewListModel(opts ListOptions) (*ListModel, error) {
	if opts.Source == nil {
		return nil, errors.New("list view needs a data source")
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	m := &ListModel{
		canvas: NewCanvas(),
		source: opts.Source,
		theme:  opts.Theme,
		keys:   DefaultKeyMap(),
		title:  opts.Title,
		log:    log,
		width:  opts.Width,
		height: opts.Height,
	}
	if m.width <= 0 {
		m.width = defaultWidth
	}
	if m.height <= 0 {
		m.height = defaultHeight
	}
	tile := 0
	if opts.Engine.Tiled {
		tile = max(opts.TileWidth, 8)
	}
	m.cells = &CellOptions{
		Key:        opts.Source.Key(),
		TitleField: opts.TitleField,
		BodyField:  opts.BodyField,
		ShowBody:   !opts.Engine.FixedSize,
		TileWidth:  tile,
		Theme:      opts.Theme,
		State:      m.cellState,
	}

	cfg := opts.Engine
	cfg.DataSource = opts.Source
	cfg.Logger = log.WithName("list")
	cfg.CellFactory = func(datasource.Item, *list.Pool) list.Cell {
		return NewTextCell(m.cells)
	}
	engine, err := list.New(cfg, m.canvas)
	if err != nil {
		return nil, fmt.Errorf("create list engine: %w", err)
	}
	m.engine = engine

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = opts.Theme.Status

	m.keys.Left.SetEnabled(opts.Engine.Tiled)
	m.keys.Right.SetEnabled(opts.Engine.Tiled)
	m.keys.Toggle.SetEnabled(cfg.Selectable == list.SelectMulti)
	return m, nil
}

// Engine exposes the underlying engine.
func (m *ListModel) Engine() *list.Engine { return m.engine }

// Canvas exposes the view the engine draws on.
func (m *ListModel) Canvas() *Canvas { return m.canvas }

// Cursor returns the index of the highlighted item.
func (m *ListModel) Cursor() int { return m.cursor }

// Offset returns the first content row shown.
func (m *ListModel) Offset() int { return m.offset }

// Chosen returns the items picked with enter, in source order.
func (m *ListModel) Chosen() []datasource.Item { return m.chosen }

// Err returns the last render error.
func (m *ListModel) Err() error { return m.err }

// Close releases the engine.
func (m *ListModel) Close() { m.engine.Close() }

func (m *ListModel) viewport() list.Viewport {
	return list.Viewport{Y: m.offset, Width: m.width, Height: max(m.height-chromeRows, 1)}
}

func (m *ListModel) cursorID() (string, bool) {
	item, ok := m.source.ItemAt(m.cursor)
	if !ok {
		return "", false
	}
	return datasource.IDOf(item, m.source.Key())
}

func (m *ListModel) cellState(id string) CellState {
	cur, _ := m.cursorID()
	st := CellState{Cursor: id != "" && id == cur}
	if sel := m.engine.Selection(); sel != nil {
		st.Selected = sel.IsSelected(id)
	}
	return st
}

// Init restarts layout. A pass left over from an earlier Init is dropped, so
// the program that calls Init owns the resume and spinner ticks.
func (m *ListModel) Init() tea.Cmd {
	m.pending = nil
	return m.render()
}

// render runs a pass for the current viewport. Variable-size passes that
// yield are resumed through resumeMsg.
func (m *ListModel) render() tea.Cmd {
	m.clampCursor()
	c, err := m.engine.Render(m.viewport())
	if err != nil {
		m.err = err
		m.log.Error(err, "render failed")
		return nil
	}
	m.err = nil
	wasIdle := m.pending == nil
	m.pending = c
	if c == nil {
		m.clampOffset()
		return nil
	}
	cmds := []tea.Cmd{resume(c)}
	if wasIdle {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func resume(c *list.Continuation) tea.Cmd {
	return tea.Tick(c.Delay, func(time.Time) tea.Msg { return resumeMsg{c: c} })
}

func (m *ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, m.render()

	case resumeMsg:
		if msg.c != m.pending {
			return m, nil
		}
		next, err := m.engine.Resume(msg.c)
		if errors.Is(err, list.ErrStalePass) {
			return m, nil
		}
		if err != nil {
			m.err = err
			m.pending = nil
			return m, nil
		}
		m.pending = next
		if next != nil {
			return m, resume(next)
		}
		m.clampOffset()
		m.ensureVisible()
		return m, nil

	case spinner.TickMsg:
		if !m.engine.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case RefreshMsg:
		if m.canvas.TakeRepaint() {
			return m, m.render()
		}
		return m, nil
	}
	return m, nil
}

func (m *ListModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	perRow := 1
	if opts := m.engine.RenderOpts(); m.engine.Config().Tiled && opts.NumPerRow > 0 {
		perRow = opts.NumPerRow
	}
	page := max(m.viewport().Height/max(m.rowHeight(), 1), 1) * perRow

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.cursor -= perRow
	case key.Matches(msg, m.keys.Down):
		m.cursor += perRow
	case key.Matches(msg, m.keys.Left):
		m.cursor--
	case key.Matches(msg, m.keys.Right):
		m.cursor++
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= page
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += page
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		m.cursor = m.source.Len() - 1
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
	case key.Matches(msg, m.keys.Choose):
		m.choose()
		return m, tea.Quit
	default:
		return m, nil
	}
	m.clampCursor()
	m.ensureVisible()
	return m, m.moved()
}

// moved redraws after the cursor or offset changed. A finished variable-size
// layout already positions every item, so only cell state changes and the
// pass is not restarted.
func (m *ListModel) moved() tea.Cmd {
	e := m.engine
	if !e.Config().FixedSize && m.pending == nil && m.err == nil &&
		!e.Dirty() && e.PendingRemovals() == 0 && m.canvas.Len() > 0 {
		return nil
	}
	return m.render()
}

func (m *ListModel) toggle() {
	sel := m.engine.Selection()
	id, ok := m.cursorID()
	if sel == nil || !ok {
		return
	}
	sel.Toggle(id)
	m.status = fmt.Sprintf("%d selected", sel.Len())
}

// choose records the picked items: the multi-selection when there is one,
// otherwise the item under the cursor.
func (m *ListModel) choose() {
	m.chosen = nil
	if sel := m.engine.Selection(); sel != nil && sel.Mode() == list.SelectMulti && sel.Len() > 0 {
		for _, id := range sel.Selected() {
			if item, ok := m.source.ItemByID(id); ok {
				m.chosen = append(m.chosen, item)
			}
		}
	} else if item, ok := m.source.ItemAt(m.cursor); ok {
		m.chosen = []datasource.Item{item}
		if sel := m.engine.Selection(); sel != nil {
			id, _ := datasource.IDOf(item, m.source.Key())
			sel.Select(id)
		}
	}
	if len(m.chosen) > 0 {
		m.engine.SetSelected(m.chosen[len(m.chosen)-1])
	}
}

func (m *ListModel) clampCursor() {
	n := m.source.Len()
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
}

func (m *ListModel) clampOffset() {
	maxOff := max(m.canvas.ContentHeight()-m.viewport().Height, 0)
	m.offset = min(max(m.offset, 0), maxOff)
}

// rowHeight is the pitch of one fixed-size row, or 1 in variable mode.
func (m *ListModel) rowHeight() int {
	if opts := m.engine.RenderOpts(); m.engine.Config().FixedSize && opts.FullHeight > 0 {
		return opts.FullHeight
	}
	return 1
}

// cursorSpan returns the content rows covered by the cursor item.
func (m *ListModel) cursorSpan() (top, bottom int, ok bool) {
	if m.engine.Config().FixedSize {
		opts := m.engine.RenderOpts()
		if opts.FullHeight <= 0 {
			return 0, 0, false
		}
		row := m.cursor
		if m.engine.Config().Tiled && opts.NumPerRow > 0 {
			row = m.cursor / opts.NumPerRow
		}
		top = row * opts.FullHeight
		return top, top + opts.CellHeight, true
	}
	id, ok := m.cursorID()
	if !ok {
		return 0, 0, false
	}
	c, ok := m.engine.CellByID(id)
	if !ok {
		return 0, 0, false
	}
	d, ok := c.(Drawable)
	if !ok {
		return 0, 0, false
	}
	top = d.Position().Y
	return top, top + max(c.Height(), 1), true
}

func (m *ListModel) ensureVisible() {
	top, bottom, ok := m.cursorSpan()
	if !ok {
		return
	}
	h := m.viewport().Height
	if top < m.offset {
		m.offset = top
	} else if bottom > m.offset+h {
		m.offset = bottom - h
	}
	m.offset = max(m.offset, 0)
}

// Content renders the frame as a string.
func (m *ListModel) Content() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')
	b.WriteString(strings.Join(m.canvas.Draw(m.viewport()), "\n"))
	b.WriteByte('\n')
	b.WriteString(m.footer())
	return b.String()
}

func (m *ListModel) header() string {
	title := m.title
	if title == "" {
		title = "kvlist"
	}
	n := m.source.Len()
	pos := 0
	if n > 0 {
		pos = m.cursor + 1
	}
	text := fmt.Sprintf("%s  %d/%d", title, pos, n)
	if m.engine.InFlight() {
		text += "  " + m.spinner.View() + " laying out"
	}
	return m.theme.Title.Render(fit(text, m.width))
}

func (m *ListModel) footer() string {
	if m.err != nil {
		return m.theme.Error.Render(fit(m.err.Error(), m.width))
	}
	text := helpLine(m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right, m.keys.Toggle, m.keys.Choose, m.keys.Quit)
	if m.status != "" {
		text = m.status + "  " + text
	}
	return m.theme.Muted.Render(fit(text, m.width))
}

func (m *ListModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	v := tea.NewView(m.Content())
	v.AltScreen = true
	return v
}

// Snapshot completes any pending pass and returns the frame.
func (m *ListModel) Snapshot() (string, error) {
	_ = m.render()
	if m.pending != nil {
		if err := m.engine.Drain(m.pending); err != nil {
			return "", err
		}
		m.pending = nil
		m.clampOffset()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.Content(), nil
}
