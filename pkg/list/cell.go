package list

import (
	"errors"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

var (
	// ErrNoCellFactory is the configuration error returned when a render
	// needs a cell and no factory was configured.
	ErrNoCellFactory = errors.New("list: no cell factory configured")
	// ErrGeometryUnavailable means the fixed-size cell dimensions are not
	// known yet (no sample item, or the sample measured zero). Render treats
	// it as a skipped pass.
	ErrGeometryUnavailable = errors.New("list: cell geometry not measurable yet")
	// ErrStalePass is returned when resuming a pass that a newer Render
	// superseded.
	ErrStalePass = errors.New("list: render pass superseded")
)

// Position places a cell in content coordinates. Zero Width or Height means
// the cell keeps its own size on that axis.
type Position struct {
	X, Y          int
	Width, Height int
}

// Cell is a visual unit bound to one item at a time.
type Cell interface {
	// SetData binds the cell to item, identified by id.
	SetData(item datasource.Item, id string)
	SetPosition(p Position)
	Width() int
	// Height may depend on the bound content and assigned width.
	Height() int
	// Remove hides the cell from its view.
	Remove()
	NeedsRepaint()
	// Recycle clears the bound data before the cell is returned to a pool.
	Recycle()
}

// Destroyer is implemented by cells holding resources that must be released
// when their pool is discarded.
type Destroyer interface {
	Destroy()
}

// CellFactory creates a cell for item. The pool is the engine's idle set, for
// factories that want to hand cells back themselves. Returning nil skips the
// item for this pass.
type CellFactory func(item datasource.Item, pool *Pool) Cell

// View is the host surface cells are shown on.
type View interface {
	// AddCell attaches c to the view; attaching an attached cell is a no-op.
	AddCell(c Cell)
	// SetContentHeight reports the total scrollable height.
	SetContentHeight(h int)
	// NeedsRepaint asks the host to schedule a render.
	NeedsRepaint()
}
