package treelist

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// DefaultColumnWidth is the width of one navigation column, in terminal cells.
const DefaultColumnWidth = 24

// Classes names the style classes the tree toggles on surface elements.
type Classes struct {
	NodeWrapper       string `json:"node_wrapper" yaml:"node_wrapper" toml:"node_wrapper"`
	NodeWrapperHidden string `json:"node_wrapper_hidden" yaml:"node_wrapper_hidden" toml:"node_wrapper_hidden"`
	Node              string `json:"node" yaml:"node" toml:"node"`
	NodeChild         string `json:"node_child" yaml:"node_child" toml:"node_child"`
	NodeActive        string `json:"node_active" yaml:"node_active" toml:"node_active"`
	NodeActiveChild   string `json:"node_active_child" yaml:"node_active_child" toml:"node_active_child"`
	NodeSelected      string `json:"node_selected" yaml:"node_selected" toml:"node_selected"`
	NodeSelectedChild string `json:"node_selected_child" yaml:"node_selected_child" toml:"node_selected_child"`
}

// DefaultClasses returns the stock class names.
func DefaultClasses() Classes {
	return Classes{
		NodeWrapper:       "browserNodeWrapper",
		NodeWrapperHidden: "browserNodeWrapperHidden",
		Node:              "browserNode",
		NodeChild:         "browserNodeChild",
		NodeActive:        "browserNodeActive",
		NodeActiveChild:   "browserNodeActiveChild",
		NodeSelected:      "browserNodeSelected",
		NodeSelectedChild: "browserNodeSelectedChild",
	}
}

// withDefaults fills empty names from DefaultClasses.
func (c Classes) withDefaults() Classes {
	d := DefaultClasses()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return Classes{
		NodeWrapper:       pick(c.NodeWrapper, d.NodeWrapper),
		NodeWrapperHidden: pick(c.NodeWrapperHidden, d.NodeWrapperHidden),
		Node:              pick(c.Node, d.Node),
		NodeChild:         pick(c.NodeChild, d.NodeChild),
		NodeActive:        pick(c.NodeActive, d.NodeActive),
		NodeActiveChild:   pick(c.NodeActiveChild, d.NodeActiveChild),
		NodeSelected:      pick(c.NodeSelected, d.NodeSelected),
		NodeSelectedChild: pick(c.NodeSelectedChild, d.NodeSelectedChild),
	}
}

// Config holds the TreeList options.
type Config struct {
	// Key is the item field holding its id. Default "id".
	Key string
	// ParentField holds the parent's key, or a nested item carrying it.
	// Missing or nil marks a root item. Default "parent".
	ParentField string
	// TitleField is the item text. Default "title".
	TitleField string
	// ColumnWidth is the width of one navigation level. Default 24.
	ColumnWidth int

	// WrapperID and ContentID name the outer surface elements. Defaults
	// "browser" and "contentWrapper".
	WrapperID string
	ContentID string

	Classes Classes

	// IDs generates element ids. Nil uses a Sequence with DefaultPrefix(Instance).
	IDs      IDGenerator
	Instance int

	Logger logr.Logger
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Key:         "id",
		ParentField: "parent",
		TitleField:  "title",
		ColumnWidth: DefaultColumnWidth,
		WrapperID:   "browser",
		ContentID:   "contentWrapper",
		Classes:     DefaultClasses(),
		Instance:    1,
		Logger:      logr.Discard(),
	}
}

// Validate checks the options.
func (c Config) Validate() error {
	var errs []error
	if c.Key == "" {
		errs = append(errs, errors.New("key field is required"))
	}
	if c.ParentField == "" {
		errs = append(errs, errors.New("parent field is required"))
	}
	if c.ParentField != "" && c.ParentField == c.Key {
		errs = append(errs, fmt.Errorf("parent field %q must differ from the key field", c.ParentField))
	}
	if c.TitleField == "" {
		errs = append(errs, errors.New("title field is required"))
	}
	if c.ColumnWidth <= 0 {
		errs = append(errs, fmt.Errorf("column width must be positive, got %d", c.ColumnWidth))
	}
	if c.WrapperID == "" || c.ContentID == "" {
		errs = append(errs, errors.New("wrapper and content ids are required"))
	} else if c.WrapperID == c.ContentID {
		errs = append(errs, fmt.Errorf("wrapper and content ids must differ, both are %q", c.WrapperID))
	}
	return errors.Join(errs...)
}
