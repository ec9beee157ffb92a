// Package treelist implements drill-down navigation over a tree data source.
// Items are laid out in columns, one per depth; activating an item with
// children opens its column to the right and closes any column at or below
// its level.
package treelist

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

type pendingUpdate struct {
	key  string
	item datasource.Item
}

// TreeList owns the node arena and the navigation stack. It is not safe for
// concurrent use.
type TreeList struct {
	cfg     Config
	classes Classes
	ids     IDGenerator
	surface Surface
	log     logr.Logger

	byKey     map[string]*Node
	rootGroup *Group
	root      *Node

	stack    []*Node
	selected *Node

	// Updates whose parent has not arrived yet, by parent key.
	pending map[string][]pendingUpdate

	listeners   map[int]func(*Node)
	nextListen  int
	ds          datasource.Source
	unsubscribe []func()
}

// New creates the wrapper and content elements on surface.
func New(cfg Config, surface Surface) (*TreeList, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if surface == nil {
		surface = NewMemorySurface()
	}
	ids := cfg.IDs
	if ids == nil {
		ids = NewSequence(DefaultPrefix(cfg.Instance))
	}
	t := &TreeList{
		cfg:       cfg,
		classes:   cfg.Classes.withDefaults(),
		ids:       ids,
		surface:   surface,
		log:       cfg.Logger,
		byKey:     make(map[string]*Node),
		pending:   make(map[string][]pendingUpdate),
		listeners: make(map[int]func(*Node)),
	}
	surface.Create(Element{ID: cfg.WrapperID, Classes: []string{"browser"}})
	surface.Create(Element{ID: cfg.ContentID, Parent: cfg.WrapperID, Classes: []string{"contentWrapper"}})
	return t, nil
}

// Config returns the options the tree was built with.
func (t *TreeList) Config() Config { return t.cfg }

// Classes returns the class names in effect.
func (t *TreeList) Classes() Classes { return t.classes }

// Surface returns the element layer.
func (t *TreeList) Surface() Surface { return t.surface }

// AddGroup creates a column for the children of parent, or the root column
// when parent is nil. Only the root column starts visible.
func (t *TreeList) AddGroup(parent *Node) *Group {
	g := &Group{ID: t.ids.Next(), Owner: parent}
	class := t.classes.NodeWrapperHidden
	if parent == nil {
		class = t.classes.NodeWrapper
	} else {
		g.Depth = parent.Depth + 1
	}
	t.surface.Create(Element{ID: g.ID, Parent: t.cfg.ContentID, Classes: []string{class}})
	return g
}

// AddItem creates the element for n inside n.Group and routes its activation
// to OnClick.
func (t *TreeList) AddItem(n *Node) *Node {
	n.ID = t.ids.Next()
	n.Depth = n.Group.Depth
	classes := []string{t.classes.Node}
	if n.HasChildren() {
		classes = append(classes, t.classes.NodeChild)
	}
	t.surface.Create(Element{ID: n.ID, Parent: n.Group.ID, Text: n.Title, Classes: classes})
	t.surface.Bind(n.ID, func() { t.OnClick(n) })
	n.Group.Items = append(n.Group.Items, n)
	return n
}

// OnClick activates n. An item with children opens its column: the stack is
// cut back to n's ancestors and n is pushed. A leaf only cuts the stack back.
// The selection marker moves to n and SelectItem listeners are notified.
func (t *TreeList) OnClick(n *Node) {
	if n == nil || t.byKey[n.Key] != n {
		return
	}
	if t.selected != nil {
		t.surface.RemoveClass(t.selected.ID, t.classes.NodeSelected)
		t.surface.RemoveClass(t.selected.ID, t.classes.NodeSelectedChild)
	}

	if n.HasChildren() {
		if top := t.top(); top != nil && n.Depth > top.Depth && n.Parent == top {
			t.push(n)
		} else {
			t.popTo(n)
			// Fill in ancestors when n was activated outside the open path.
			path := n.Ancestors()
			for _, a := range path[len(t.stack):] {
				t.push(a)
			}
			t.push(n)
		}
	} else {
		t.popTo(n)
	}

	t.selected = n
	t.surface.AddClass(n.ID, t.classes.NodeSelected)
	if n.HasChildren() {
		t.surface.AddClass(n.ID, t.classes.NodeSelectedChild)
	}
	if len(t.stack) > 0 {
		t.surface.SetWidth(t.cfg.ContentID, (len(t.stack)+1)*t.cfg.ColumnWidth)
	}
	t.log.V(1).Info("item activated", "key", n.Key, "depth", n.Depth, "stack", len(t.stack))

	for _, id := range slices.Sorted(maps.Keys(t.listeners)) {
		t.listeners[id](n)
	}
}

// popTo pops every entry at n's depth or deeper, then every entry that is
// not an ancestor of n.
func (t *TreeList) popTo(n *Node) {
	t.popDepth(n.Depth)
	path := n.Ancestors()
	keep := 0
	for keep < len(t.stack) && keep < len(path) && t.stack[keep] == path[keep] {
		keep++
	}
	for len(t.stack) > keep {
		t.pop()
	}
}

func (t *TreeList) popDepth(depth int) {
	for top := t.top(); top != nil && top.Depth >= depth; top = t.top() {
		t.pop()
	}
}

func (t *TreeList) top() *Node {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

func (t *TreeList) pop() {
	n := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	t.surface.RemoveClass(n.ID, t.classes.NodeActive)
	t.surface.RemoveClass(n.ID, t.classes.NodeActiveChild)
	if n.ChildGroup != nil {
		t.surface.AddClass(n.ChildGroup.ID, t.classes.NodeWrapperHidden)
		t.surface.RemoveClass(n.ChildGroup.ID, t.classes.NodeWrapper)
	}
}

func (t *TreeList) push(n *Node) {
	t.stack = append(t.stack, n)
	t.surface.RemoveClass(n.ID, t.classes.NodeActive)
	t.surface.RemoveClass(n.ID, t.classes.NodeActiveChild)
	if n.HasChildren() {
		t.surface.AddClass(n.ID, t.classes.NodeActiveChild)
	} else {
		t.surface.AddClass(n.ID, t.classes.NodeActive)
	}
	if n.ChildGroup != nil {
		t.surface.AddClass(n.ChildGroup.ID, t.classes.NodeWrapper)
		t.surface.RemoveClass(n.ChildGroup.ID, t.classes.NodeWrapperHidden)
	}
}

// OnUpdateItem grows the tree with item. Known keys are ignored. An item
// whose parent is unknown waits until the parent arrives.
func (t *TreeList) OnUpdateItem(key string, item datasource.Item) {
	if key == "" {
		return
	}
	if _, ok := t.byKey[key]; ok {
		return
	}

	n := &Node{Key: key, Title: t.title(key, item), Item: item}
	parentKey, hasParent := t.parentKey(item)
	if !hasParent {
		if t.rootGroup == nil {
			t.rootGroup = t.AddGroup(nil)
		}
		n.Group = t.rootGroup
		if t.root == nil {
			t.root = n
		}
	} else {
		if parentKey == key {
			t.log.V(1).Info("rejected item that is its own parent", "key", key)
			return
		}
		parent, ok := t.byKey[parentKey]
		if !ok {
			t.pending[parentKey] = append(t.pending[parentKey], pendingUpdate{key: key, item: item})
			t.log.V(1).Info("parked item until its parent arrives", "key", key, "parent", parentKey)
			return
		}
		if parent.ChildGroup == nil {
			parent.ChildGroup = t.AddGroup(parent)
			if slices.Contains(t.stack, parent) {
				t.surface.AddClass(parent.ChildGroup.ID, t.classes.NodeWrapper)
				t.surface.RemoveClass(parent.ChildGroup.ID, t.classes.NodeWrapperHidden)
			}
		}
		n.Parent = parent
		n.Group = parent.ChildGroup
		parent.Children = append(parent.Children, n)
		if len(parent.Children) == 1 {
			t.surface.AddClass(parent.ID, t.classes.NodeChild)
		}
	}
	t.AddItem(n)
	t.byKey[key] = n

	waiting := t.pending[key]
	delete(t.pending, key)
	for _, p := range waiting {
		t.OnUpdateItem(p.key, p.item)
	}
}

// OnRemoveItem removes the node for key and its subtree, closing its column
// and clearing the selection marker when they are affected.
func (t *TreeList) OnRemoveItem(key string, _ datasource.Item) {
	n, ok := t.byKey[key]
	if !ok {
		t.dropPending(key)
		return
	}
	if slices.Contains(t.stack, n) {
		t.popDepth(n.Depth)
		t.surface.SetWidth(t.cfg.ContentID, (len(t.stack)+1)*t.cfg.ColumnWidth)
	}
	t.removeSubtree(n)

	if p := n.Parent; p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(c *Node) bool { return c == n })
		if !p.HasChildren() {
			t.surface.RemoveClass(p.ID, t.classes.NodeChild)
			t.surface.RemoveClass(p.ID, t.classes.NodeSelectedChild)
			if slices.Contains(t.stack, p) {
				t.surface.RemoveClass(p.ID, t.classes.NodeActiveChild)
				t.surface.AddClass(p.ID, t.classes.NodeActive)
			}
		}
	}
	g := n.Group
	g.Items = slices.DeleteFunc(g.Items, func(c *Node) bool { return c == n })
	if t.root == n {
		t.root = nil
		if len(g.Items) > 0 {
			t.root = g.Items[0]
		}
	}
	t.log.V(1).Info("item removed", "key", key)
}

func (t *TreeList) removeSubtree(n *Node) {
	for _, c := range n.Children {
		t.removeSubtree(c)
	}
	if t.selected == n {
		t.selected = nil
	}
	if n.ChildGroup != nil {
		t.surface.Remove(n.ChildGroup.ID)
	}
	t.surface.Remove(n.ID)
	delete(t.byKey, n.Key)
}

func (t *TreeList) dropPending(key string) {
	for parent, list := range t.pending {
		list = slices.DeleteFunc(list, func(p pendingUpdate) bool { return p.key == key })
		if len(list) == 0 {
			delete(t.pending, parent)
		} else {
			t.pending[parent] = list
		}
	}
}

// SetDataSource replaces the tree's source. The current tree is cleared and
// rebuilt from the source's items in index order; later Update and Remove
// notifications keep it in step.
func (t *TreeList) SetDataSource(ds datasource.Source) {
	t.detach()
	t.reset()
	t.ds = ds
	if ds == nil {
		return
	}
	t.unsubscribe = append(t.unsubscribe,
		ds.Subscribe(datasource.EventUpdate, t.OnUpdateItem),
		ds.Subscribe(datasource.EventRemove, t.OnRemoveItem),
	)
	for i := 0; i < ds.Len(); i++ {
		item, ok := ds.ItemAt(i)
		if !ok {
			continue
		}
		if id, ok := datasource.IDOf(item, t.cfg.Key); ok {
			t.OnUpdateItem(id, item)
		}
	}
}

// DataSource returns the bound source.
func (t *TreeList) DataSource() datasource.Source { return t.ds }

func (t *TreeList) detach() {
	for _, fn := range t.unsubscribe {
		fn()
	}
	t.unsubscribe = nil
}

func (t *TreeList) reset() {
	for len(t.stack) > 0 {
		t.pop()
	}
	if t.rootGroup != nil {
		for _, n := range slices.Clone(t.rootGroup.Items) {
			t.removeSubtree(n)
		}
		t.surface.Remove(t.rootGroup.ID)
	}
	t.rootGroup, t.root, t.selected = nil, nil, nil
	clear(t.byKey)
	clear(t.pending)
}

// OnSelect registers fn for SelectItem notifications.
func (t *TreeList) OnSelect(fn func(*Node)) (unsubscribe func()) {
	t.nextListen++
	id := t.nextListen
	t.listeners[id] = fn
	return func() { delete(t.listeners, id) }
}

// Stack returns the open path, shallowest first.
func (t *TreeList) Stack() []*Node { return slices.Clone(t.stack) }

// Selected returns the last activated node.
func (t *TreeList) Selected() *Node { return t.selected }

// Node returns the node for key.
func (t *TreeList) Node(key string) (*Node, bool) {
	n, ok := t.byKey[key]
	return n, ok
}

// Root returns the first root item.
func (t *TreeList) Root() *Node { return t.root }

// RootGroup returns the root column, nil until the first root item arrives.
func (t *TreeList) RootGroup() *Group { return t.rootGroup }

// Collapse closes every open level, leaving only the root column. The
// selected node keeps its marker.
func (t *TreeList) Collapse() {
	for len(t.stack) > 0 {
		t.pop()
	}
	t.surface.SetWidth(t.cfg.ContentID, t.cfg.ColumnWidth)
}

// Columns returns the visible columns: the root column followed by the child
// column of each open stack entry.
func (t *TreeList) Columns() []*Group {
	if t.rootGroup == nil {
		return nil
	}
	cols := []*Group{t.rootGroup}
	for _, n := range t.stack {
		if n.ChildGroup != nil {
			cols = append(cols, n.ChildGroup)
		}
	}
	return cols
}

// Len returns the number of nodes.
func (t *TreeList) Len() int { return len(t.byKey) }

// Pending returns the number of items waiting for their parent.
func (t *TreeList) Pending() int {
	n := 0
	for _, list := range t.pending {
		n += len(list)
	}
	return n
}

// WrapperID returns the outer element id.
func (t *TreeList) WrapperID() string { return t.cfg.WrapperID }

// ContentID returns the element id whose width tracks the open columns.
func (t *TreeList) ContentID() string { return t.cfg.ContentID }

// Close detaches the tree from its data source.
func (t *TreeList) Close() {
	t.detach()
	clear(t.listeners)
}

func (t *TreeList) title(key string, item datasource.Item) string {
	v, ok := item[t.cfg.TitleField]
	if !ok || v == nil {
		return key
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// parentKey reads the parent reference, which is either the parent's key or
// a nested item carrying it.
func (t *TreeList) parentKey(item datasource.Item) (string, bool) {
	v, ok := item[t.cfg.ParentField]
	if !ok || v == nil {
		return "", false
	}
	if nested, ok := v.(map[string]interface{}); ok {
		return datasource.IDOf(nested, t.cfg.Key)
	}
	return datasource.IDOf(datasource.Item{t.cfg.Key: v}, t.cfg.Key)
}

