package loader

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

// Options controls how parsed documents become records.
type Options struct {
	// Key is the id field. Records without one get their position (or map
	// key, for keyed collections) as id. Default "id".
	Key string
	// Collection names the field holding the records when the document is an
	// object. Empty picks the only list-of-objects field, if there is one.
	Collection string
	// ChildrenField, when set, flattens nested children lists into records
	// that point at their parent through ParentField.
	ChildrenField string
	// ParentField receives the parent id of flattened children. Default "parent".
	ParentField string
}

func (o Options) withDefaults() Options {
	if o.Key == "" {
		o.Key = "id"
	}
	if o.ParentField == "" {
		o.ParentField = "parent"
	}
	return o
}

// LoadRecords parses input and converts it to records.
func LoadRecords(input string, opts Options) ([]datasource.Item, error) {
	docs, err := LoadData(input)
	if err != nil {
		return nil, err
	}
	return Records(docs, opts)
}

// LoadReaderRecords reads r and converts it to records.
func LoadReaderRecords(r io.Reader, opts Options) ([]datasource.Item, error) {
	docs, err := LoadReader(r)
	if err != nil {
		return nil, err
	}
	return Records(docs, opts)
}

// LoadFileRecords reads path and converts it to records.
func LoadFileRecords(path string, opts Options) ([]datasource.Item, error) {
	docs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Records(docs, opts)
}

// Records converts parsed documents to records:
//   - several documents become one record each;
//   - a single array becomes one record per element;
//   - a single object yields its Collection field, its only list of objects,
//     a keyed collection when every value is an object, or else itself.
//
// Scalars are wrapped as {key: position, "value": v}. The decoded maps are
// copied, never modified.
func Records(docs []interface{}, opts Options) ([]datasource.Item, error) {
	opts = opts.withDefaults()

	var elems []interface{}
	var names []string // map keys for keyed collections
	switch {
	case len(docs) != 1:
		elems = docs
	default:
		switch root := docs[0].(type) {
		case []interface{}:
			elems = root
		case map[string]interface{}:
			var err error
			if elems, names, err = fromObject(root, opts); err != nil {
				return nil, err
			}
		default:
			elems = docs
		}
	}

	out := make([]datasource.Item, 0, len(elems))
	for i, e := range elems {
		fallback := strconv.Itoa(i)
		if names != nil {
			fallback = names[i]
		}
		out = append(out, toRecord(e, opts.Key, fallback))
	}
	if opts.ChildrenField != "" {
		out = flatten(out, opts)
	}
	return out, nil
}

func fromObject(root map[string]interface{}, opts Options) ([]interface{}, []string, error) {
	if opts.Collection != "" {
		v, ok := root[opts.Collection]
		if !ok {
			return nil, nil, fmt.Errorf("collection field %q not found", opts.Collection)
		}
		list, ok := v.([]interface{})
		if !ok {
			return nil, nil, fmt.Errorf("collection field %q is %T, not a list", opts.Collection, v)
		}
		return list, nil, nil
	}

	var lists []string
	allObjects := len(root) > 0
	for k, v := range root {
		if isObjectList(v) {
			lists = append(lists, k)
		}
		if _, ok := v.(map[string]interface{}); !ok {
			allObjects = false
		}
	}
	if len(lists) == 1 {
		return root[lists[0]].([]interface{}), nil, nil
	}
	if allObjects {
		names := slices.Sorted(maps.Keys(root))
		elems := make([]interface{}, len(names))
		for i, k := range names {
			elems[i] = root[k]
		}
		return elems, names, nil
	}
	return []interface{}{root}, nil, nil
}

func isObjectList(v interface{}) bool {
	list, ok := v.([]interface{})
	if !ok || len(list) == 0 {
		return false
	}
	for _, e := range list {
		if _, ok := e.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

func toRecord(v interface{}, key, fallback string) datasource.Item {
	m, ok := v.(map[string]interface{})
	if !ok {
		return datasource.Item{key: fallback, "value": v}
	}
	rec := maps.Clone(m)
	if _, ok := datasource.IDOf(rec, key); !ok {
		rec[key] = fallback
	}
	return rec
}

// flatten lifts nested children into top-level records, parents first.
func flatten(records []datasource.Item, opts Options) []datasource.Item {
	out := make([]datasource.Item, 0, len(records))
	var walk func(rec datasource.Item)
	walk = func(rec datasource.Item) {
		children, _ := rec[opts.ChildrenField].([]interface{})
		delete(rec, opts.ChildrenField)
		out = append(out, rec)
		parentID, _ := datasource.IDOf(rec, opts.Key)
		for i, c := range children {
			child := toRecord(c, opts.Key, parentID+"."+strconv.Itoa(i))
			if _, ok := child[opts.ParentField]; !ok {
				child[opts.ParentField] = parentID
			}
			walk(child)
		}
	}
	for _, rec := range records {
		walk(rec)
	}
	return out
}
