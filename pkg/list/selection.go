package list

import (
	"fmt"
	"slices"
	"strings"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

// SelectMode controls how many items a Selection may hold.
type SelectMode int

const (
	SelectNone SelectMode = iota
	SelectSingle
	SelectMulti
)

func (m SelectMode) String() string {
	switch m {
	case SelectSingle:
		return "single"
	case SelectMulti:
		return "multi"
	default:
		return "none"
	}
}

// ParseSelectMode parses "", "none", "single", or "multi".
func ParseSelectMode(s string) (SelectMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SelectNone, nil
	case "single":
		return SelectSingle, nil
	case "multi", "multiple":
		return SelectMulti, nil
	default:
		return SelectNone, fmt.Errorf("unknown selection mode %q (want none, single or multi)", s)
	}
}

// Selection tracks selected item ids against a data source. Ids removed from
// the source leave the selection.
type Selection struct {
	mode        SelectMode
	ds          datasource.Source
	ids         map[string]struct{}
	unsubscribe func()
}

// NewSelection binds a selection of the given mode to ds.
func NewSelection(ds datasource.Source, mode SelectMode) *Selection {
	s := &Selection{
		mode: mode,
		ds:   ds,
		ids:  make(map[string]struct{}),
	}
	if ds != nil {
		s.unsubscribe = ds.Subscribe(datasource.EventRemove, func(id string, _ datasource.Item) {
			delete(s.ids, id)
		})
	}
	return s
}

// Mode returns the selection mode.
func (s *Selection) Mode() SelectMode { return s.mode }

// Select adds id. Single mode replaces any previous selection. Unknown ids
// and SelectNone selections are ignored.
func (s *Selection) Select(id string) bool {
	if s.mode == SelectNone || s.ds == nil {
		return false
	}
	if _, ok := s.ds.ItemByID(id); !ok {
		return false
	}
	if s.mode == SelectSingle {
		clear(s.ids)
	}
	s.ids[id] = struct{}{}
	return true
}

// Deselect removes id.
func (s *Selection) Deselect(id string) {
	delete(s.ids, id)
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if s.IsSelected(id) {
		s.Deselect(id)
		return false
	}
	return s.Select(id)
}

// IsSelected reports whether id is selected.
func (s *Selection) IsSelected(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// Selected returns the selected ids in data source order.
func (s *Selection) Selected() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	if s.ds == nil {
		slices.Sort(out)
		return out
	}
	pos := make(map[string]int, len(out))
	for i := 0; i < s.ds.Len() && len(pos) < len(out); i++ {
		item, _ := s.ds.ItemAt(i)
		if id, ok := datasource.IDOf(item, s.ds.Key()); ok {
			if _, sel := s.ids[id]; sel {
				pos[id] = i
			}
		}
	}
	slices.SortFunc(out, func(a, b string) int { return pos[a] - pos[b] })
	return out
}

// Clear deselects everything.
func (s *Selection) Clear() { clear(s.ids) }

// Close detaches the selection from its data source.
func (s *Selection) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
