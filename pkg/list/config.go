package list

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

const (
	// DefaultSliceMinItems is the fewest items a variable-size slice lays out
	// before it may yield.
	DefaultSliceMinItems = 10
	// DefaultSliceBudget is how long a variable-size slice may keep going
	// past DefaultSliceMinItems.
	DefaultSliceBudget = 50 * time.Millisecond
	// DefaultResumeDelay is the pause the host should insert between slices.
	DefaultResumeDelay = 100 * time.Millisecond
)

// Config holds the engine options.
type Config struct {
	// FixedSize selects direct index-to-position math from the measured size
	// of the first cell. When false, cells are laid out sequentially with
	// their own heights in time-sliced passes. Default true.
	FixedSize bool
	// Tiled lays fixed-size cells out in a grid that fills the viewport width.
	Tiled bool
	// Recycle returns cells leaving the window to the pool. Default true.
	Recycle bool
	// RenderMargin extends the visible window above and below the viewport.
	RenderMargin int
	// Spacing is added between fixed-size cells on both axes.
	Spacing int

	CellFactory CellFactory
	DataSource  datasource.Source
	// Sorter is installed on data sources implementing datasource.Sortable.
	Sorter datasource.Sorter
	// Selectable builds a Selection bound to the data source.
	Selectable SelectMode

	SliceMinItems int
	SliceBudget   time.Duration
	ResumeDelay   time.Duration
	// Clock drives slice budgets; nil means time.Now.
	Clock Clock

	Logger logr.Logger
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		FixedSize:     true,
		Recycle:       true,
		SliceMinItems: DefaultSliceMinItems,
		SliceBudget:   DefaultSliceBudget,
		ResumeDelay:   DefaultResumeDelay,
		Logger:        logr.Discard(),
	}
}

// Validate checks option combinations.
func (c Config) Validate() error {
	var errs []error
	if c.RenderMargin < 0 {
		errs = append(errs, fmt.Errorf("render margin must be non-negative, got %d", c.RenderMargin))
	}
	if c.Spacing < 0 {
		errs = append(errs, fmt.Errorf("spacing must be non-negative, got %d", c.Spacing))
	}
	if c.Tiled && !c.FixedSize {
		errs = append(errs, errors.New("tiled layout requires fixed-size cells"))
	}
	if c.SliceMinItems < 1 {
		errs = append(errs, fmt.Errorf("slice min items must be at least 1, got %d", c.SliceMinItems))
	}
	if c.SliceBudget < 0 {
		errs = append(errs, fmt.Errorf("slice budget must be non-negative, got %s", c.SliceBudget))
	}
	if c.ResumeDelay < 0 {
		errs = append(errs, fmt.Errorf("resume delay must be non-negative, got %s", c.ResumeDelay))
	}
	if c.Selectable < SelectNone || c.Selectable > SelectMulti {
		errs = append(errs, fmt.Errorf("unknown selection mode %d", c.Selectable))
	}
	return errors.Join(errs...)
}
