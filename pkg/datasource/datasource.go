// Package datasource defines the ordered, keyed item collection consumed by the
// list engine and the tree list, together with an in-memory implementation.
package datasource

import (
	"errors"
	"fmt"
	"strconv"
)

// Item is a decoded record. Items are identified by the string form of the
// value stored under the source's key field.
type Item = map[string]interface{}

// Event names a change notification published by a Source.
type Event string

const (
	EventUpdate Event = "Update"
	EventRemove Event = "Remove"
)

// Listener receives change notifications in publish order.
type Listener func(id string, item Item)

// ErrMissingKey is returned when an item has no value under the key field.
var ErrMissingKey = errors.New("item has no key")

// Source is the ordered collection contract.
type Source interface {
	// Len returns the number of items currently held.
	Len() int
	// Key returns the name of the field that identifies items.
	Key() string
	// ItemAt returns the item at index i in the current order.
	ItemAt(i int) (Item, bool)
	// ItemByID returns the item whose key renders as id.
	ItemByID(id string) (Item, bool)
	// Sort reorders the items using the source's sorter.
	Sort()
	// Subscribe registers fn for event and returns a function that removes it.
	Subscribe(event Event, fn Listener) (unsubscribe func())
}

// Sortable is implemented by sources whose ordering can be replaced.
type Sortable interface {
	SetSorter(s Sorter)
}

// IDOf renders the key value of item as an id. The boolean is false when the
// key is missing or nil.
func IDOf(item Item, key string) (string, bool) {
	if item == nil {
		return "", false
	}
	v, ok := item[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return fmt.Sprint(t), true
	}
}
