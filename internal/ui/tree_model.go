package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
	"github.com/oakwood-commons/kvlist/pkg/treelist"
)

// TreeOptions configures a TreeModel.
type TreeOptions struct {
	Source datasource.Source
	Tree   treelist.Config
	Theme  Theme
	Title  string
	Width  int
	Height int
}

// TreeModel shows a treelist.TreeList as Miller columns: the root column and
// one column per open level, scrolled so the deepest columns stay visible.
type TreeModel struct {
	tree    *treelist.TreeList
	surface *treelist.MemorySurface
	theme   Theme
	keys    KeyMap
	title   string

	width, height int
	cursor        *treelist.Node
	chosen        *treelist.Node
	quitting      bool
	unsubscribe   func()
}

// NewTreeModel builds the tree on an in-memory surface and loads the source.
func NewTreeModel(opts TreeOptions) (*TreeModel, error) {
	if opts.Source == nil {
		return nil, errors.New("tree view needs a data source")
	}
	surface := treelist.NewMemorySurface()
	tl, err := treelist.New(opts.Tree, surface)
	if err != nil {
		return nil, fmt.Errorf("create tree: %w", err)
	}
	m := &TreeModel{
		tree:    tl,
		surface: surface,
		theme:   opts.Theme,
		keys:    DefaultKeyMap(),
		title:   opts.Title,
		width:   opts.Width,
		height:  opts.Height,
	}
	if m.width <= 0 {
		m.width = defaultWidth
	}
	if m.height <= 0 {
		m.height = defaultHeight
	}
	m.keys.Toggle.SetEnabled(false)
	m.keys.PageUp.SetEnabled(false)
	m.keys.PageDown.SetEnabled(false)
	m.unsubscribe = tl.OnSelect(func(n *treelist.Node) {
		if !n.HasChildren() {
			m.chosen = n
		}
	})
	tl.SetDataSource(opts.Source)
	m.syncCursor()
	return m, nil
}

// Tree exposes the underlying TreeList.
func (m *TreeModel) Tree() *treelist.TreeList { return m.tree }

// Surface exposes the element surface the columns are drawn from.
func (m *TreeModel) Surface() *treelist.MemorySurface { return m.surface }

// Cursor returns the highlighted node.
func (m *TreeModel) Cursor() *treelist.Node { return m.cursor }

// Chosen returns the leaf activated with enter, if any.
func (m *TreeModel) Chosen() []datasource.Item {
	if m.chosen == nil {
		return nil
	}
	return []datasource.Item{m.chosen.Item}
}

// Close detaches the tree from its source.
func (m *TreeModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.tree.Close()
}

// syncCursor moves the cursor to the first root node when it points at a
// node that is gone.
func (m *TreeModel) syncCursor() {
	if m.cursor != nil {
		if n, ok := m.tree.Node(m.cursor.Key); ok && n == m.cursor {
			return
		}
	}
	m.cursor = nil
	if g := m.tree.RootGroup(); g != nil && len(g.Items) > 0 {
		m.cursor = g.Items[0]
	}
}

func (m *TreeModel) Init() tea.Cmd { return nil }

func (m *TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case RefreshMsg:
		m.syncCursor()
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *TreeModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	m.syncCursor()
	n := m.cursor
	if n == nil {
		return m, nil
	}
	siblings := n.Group.Items
	idx := slices.Index(siblings, n)

	switch {
	case key.Matches(msg, m.keys.Up):
		if idx > 0 {
			m.cursor = siblings[idx-1]
		}
	case key.Matches(msg, m.keys.Down):
		if idx >= 0 && idx < len(siblings)-1 {
			m.cursor = siblings[idx+1]
		}
	case key.Matches(msg, m.keys.Home):
		m.cursor = siblings[0]
	case key.Matches(msg, m.keys.End):
		m.cursor = siblings[len(siblings)-1]
	case key.Matches(msg, m.keys.Right):
		m.open(n)
	case key.Matches(msg, m.keys.Left):
		m.back(n)
	case key.Matches(msg, m.keys.Choose):
		m.surface.Click(n.ID)
		if n.HasChildren() {
			m.cursor = n.ChildGroup.Items[0]
			return m, nil
		}
		return m, tea.Quit
	}
	return m, nil
}

// open activates a node with children and moves into its column.
func (m *TreeModel) open(n *treelist.Node) {
	if !n.HasChildren() {
		return
	}
	m.surface.Click(n.ID)
	m.cursor = n.ChildGroup.Items[0]
}

// back closes the cursor's column and returns to its parent.
func (m *TreeModel) back(n *treelist.Node) {
	p := n.Parent
	if p == nil {
		return
	}
	if p.Parent != nil {
		m.surface.Click(p.Parent.ID)
	} else {
		m.tree.Collapse()
	}
	m.cursor = p
}

// Content renders the frame as a string.
func (m *TreeModel) Content() string {
	m.syncCursor()
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')
	b.WriteString(m.body())
	b.WriteByte('\n')
	b.WriteString(m.footer())
	return b.String()
}

func (m *TreeModel) header() string {
	title := m.title
	if title == "" {
		title = "kvlist"
	}
	crumbs := []string{title}
	for _, n := range m.tree.Stack() {
		crumbs = append(crumbs, n.Title)
	}
	return m.theme.Title.Render(fit(strings.Join(crumbs, " › "), m.width))
}

func (m *TreeModel) footer() string {
	text := helpLine(m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right, m.keys.Choose, m.keys.Quit)
	if m.chosen != nil {
		text = "selected " + m.chosen.Title + "  " + text
	}
	return m.theme.Muted.Render(fit(text, m.width))
}

func (m *TreeModel) body() string {
	rows := max(m.height-chromeRows, 1)
	colW := m.tree.Config().ColumnWidth
	cols := m.tree.Columns()
	if len(cols) == 0 {
		blank := make([]string, rows)
		for i := range blank {
			blank[i] = fit("", m.width)
		}
		blank[0] = m.theme.Muted.Render(fit("(no items)", m.width))
		return strings.Join(blank, "\n")
	}

	// The content element tracks the width the open columns need; show the
	// rightmost columns that fit.
	total := max(m.surface.Width(m.tree.ContentID()), len(cols)*colW)
	fitCols := max(m.width/colW, 1)
	first := 0
	if total > m.width {
		first = max(len(cols)-fitCols, 0)
	}

	rendered := make([]string, 0, len(cols)-first+1)
	used := 0
	for _, g := range cols[first:] {
		w := min(colW, m.width-used)
		if w <= 0 {
			break
		}
		rendered = append(rendered, m.column(g, w, rows))
		used += w
	}
	if used < m.width {
		filler := make([]string, rows)
		for i := range filler {
			filler[i] = strings.Repeat(" ", m.width-used)
		}
		rendered = append(rendered, strings.Join(filler, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// column draws one group, scrolled to keep its focused node in view.
func (m *TreeModel) column(g *treelist.Group, width, rows int) string {
	classes := m.tree.Classes()
	focus := -1
	for i, n := range g.Items {
		if n == m.cursor || m.surface.HasClass(n.ID, classes.NodeActive) || m.surface.HasClass(n.ID, classes.NodeActiveChild) {
			focus = i
			if n == m.cursor {
				break
			}
		}
	}
	start := 0
	if focus >= rows {
		start = focus - rows + 1
	}

	lines := make([]string, rows)
	for r := range rows {
		i := start + r
		if i >= len(g.Items) {
			lines[r] = m.theme.Border.Render(fit("", width-1) + "│")
			continue
		}
		lines[r] = m.nodeLine(g.Items[i], width-1) + m.theme.Border.Render("│")
	}
	return strings.Join(lines, "\n")
}

func (m *TreeModel) nodeLine(n *treelist.Node, width int) string {
	classes := m.tree.Classes()
	text := n.Title
	if el, ok := m.surface.Lookup(n.ID); ok {
		text = el.Text
	}
	marker := "  "
	if n == m.cursor {
		marker = "> "
	}
	suffix := ""
	if m.surface.HasClass(n.ID, classes.NodeChild) {
		suffix = " ›"
	}
	body := fit(marker+text, max(width-len([]rune(suffix)), 0)) + suffix

	style := m.theme.Text
	switch {
	case n == m.cursor:
		style = m.theme.Cursor
	case m.surface.HasClass(n.ID, classes.NodeActive), m.surface.HasClass(n.ID, classes.NodeActiveChild):
		style = m.theme.Active
	case m.surface.HasClass(n.ID, classes.NodeSelected), m.surface.HasClass(n.ID, classes.NodeSelectedChild):
		style = m.theme.Selected
	}
	return style.Render(body)
}

func (m *TreeModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	v := tea.NewView(m.Content())
	v.AltScreen = true
	return v
}

// Snapshot returns the current frame.
func (m *TreeModel) Snapshot() (string, error) {
	return m.Content(), nil
}
