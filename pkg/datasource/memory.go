package datasource

import (
	"fmt"
	"slices"
)

// Memory is an in-memory ordered Source. Set and Remove publish Update and
// Remove notifications synchronously; ordering only changes on Sort.
//
// Memory is not safe for concurrent use.
type Memory struct {
	key    string
	items  []Item
	index  map[string]int
	sorter Sorter

	listeners map[Event][]subscription
	nextSubID int
}

type subscription struct {
	id int
	fn Listener
}

var (
	_ Source   = (*Memory)(nil)
	_ Sortable = (*Memory)(nil)
)

// NewMemory returns a source keyed by key, seeded with items in the given
// order without publishing notifications. Items lacking a key are skipped;
// a later item with the same id replaces the earlier one in place.
func NewMemory(key string, items ...Item) *Memory {
	if key == "" {
		key = "id"
	}
	m := &Memory{
		key:       key,
		index:     make(map[string]int, len(items)),
		sorter:    ByField(key),
		listeners: make(map[Event][]subscription),
	}
	for _, item := range items {
		_, _ = m.upsert(item)
	}
	return m
}

// Key returns the id field name.
func (m *Memory) Key() string { return m.key }

// Len returns the number of items.
func (m *Memory) Len() int { return len(m.items) }

// ItemAt returns the item at index i.
func (m *Memory) ItemAt(i int) (Item, bool) {
	if i < 0 || i >= len(m.items) {
		return nil, false
	}
	return m.items[i], true
}

// ItemByID returns the item with the given id.
func (m *Memory) ItemByID(id string) (Item, bool) {
	i, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.items[i], true
}

// IndexOf returns the position of id, or -1.
func (m *Memory) IndexOf(id string) int {
	if i, ok := m.index[id]; ok {
		return i
	}
	return -1
}

// Items returns a copy of the current ordering.
func (m *Memory) Items() []Item {
	return slices.Clone(m.items)
}

// SetSorter replaces the ordering used by Sort. A nil sorter restores
// ordering by the key field.
func (m *Memory) SetSorter(s Sorter) {
	if s == nil {
		s = ByField(m.key)
	}
	m.sorter = s
}

// Sort stably reorders the items and rebuilds the id index.
func (m *Memory) Sort() {
	slices.SortStableFunc(m.items, m.sorter)
	m.reindex()
}

// Set inserts or replaces items, publishing Update for each. New items are
// appended; replacements keep their position.
func (m *Memory) Set(items ...Item) error {
	for _, item := range items {
		id, err := m.upsert(item)
		if err != nil {
			return err
		}
		m.publish(EventUpdate, id, item)
	}
	return nil
}

// Remove deletes the items with the given ids, publishing Remove for each one
// that existed. The index is rebuilt once before any listener runs, so
// listeners observe the source with the whole batch gone.
func (m *Memory) Remove(ids ...string) {
	type removal struct {
		id   string
		item Item
	}
	var removed []removal
	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		i, ok := m.index[id]
		if !ok {
			continue
		}
		if _, dup := drop[i]; dup {
			continue
		}
		drop[i] = struct{}{}
		removed = append(removed, removal{id: id, item: m.items[i]})
	}
	if len(removed) == 0 {
		return
	}
	kept := m.items[:0]
	for i, item := range m.items {
		if _, ok := drop[i]; !ok {
			kept = append(kept, item)
		}
	}
	clear(m.items[len(kept):])
	m.items = kept
	m.reindex()
	for _, r := range removed {
		m.publish(EventRemove, r.id, r.item)
	}
}

// Clear removes every item, publishing Remove in index order.
func (m *Memory) Clear() {
	ids := make([]string, 0, len(m.items))
	for _, item := range m.items {
		if id, ok := IDOf(item, m.key); ok {
			ids = append(ids, id)
		}
	}
	m.Remove(ids...)
}

// Subscribe registers fn for event.
func (m *Memory) Subscribe(event Event, fn Listener) func() {
	m.nextSubID++
	id := m.nextSubID
	m.listeners[event] = append(m.listeners[event], subscription{id: id, fn: fn})
	return func() {
		subs := m.listeners[event]
		m.listeners[event] = slices.DeleteFunc(subs, func(s subscription) bool { return s.id == id })
	}
}

func (m *Memory) upsert(item Item) (string, error) {
	id, ok := IDOf(item, m.key)
	if !ok {
		return "", fmt.Errorf("%w: field %q", ErrMissingKey, m.key)
	}
	if i, exists := m.index[id]; exists {
		m.items[i] = item
		return id, nil
	}
	m.index[id] = len(m.items)
	m.items = append(m.items, item)
	return id, nil
}

func (m *Memory) reindex() {
	clear(m.index)
	for i, item := range m.items {
		if id, ok := IDOf(item, m.key); ok {
			m.index[id] = i
		}
	}
}

func (m *Memory) publish(event Event, id string, item Item) {
	// Listeners may subscribe or unsubscribe while being notified.
	subs := slices.Clone(m.listeners[event])
	for _, s := range subs {
		s.fn(id, item)
	}
}
