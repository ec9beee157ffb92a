package list

// Viewport is the visible region in content coordinates.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// RenderOpts is the geometry computed for one render pass.
//
// Start and End delimit the half-open index range [Start, End) of items whose
// rows intersect the margin-expanded viewport; 0 <= Start <= End <= NumItems.
type RenderOpts struct {
	Top, Bottom, Height int

	NumItems int
	NumRows  int // Rows of content; items/NumPerRow rounded up when tiled.

	CellWidth, CellHeight int
	FullWidth, FullHeight int // Cell size plus spacing: the grid pitch.
	NumPerRow             int
	MaxWidth              int

	Start, End int
}

// GeometryInput carries everything ComputeGeometry depends on.
type GeometryInput struct {
	Viewport  Viewport
	NumItems  int
	FixedSize bool
	Tiled     bool
	// CellWidth and CellHeight are the measured dimensions of the sample cell.
	CellWidth, CellHeight int
	// RenderMargin extends the viewport above and below.
	RenderMargin int
	// Spacing is added to each cell dimension to form the grid pitch.
	Spacing int
}

// ComputeGeometry maps a viewport onto the visible index window. Item i of a
// single-column list occupies rows [i*FullHeight, (i+1)*FullHeight); it is
// in the window when it starts at or before Bottom and ends after Top. Tiled
// grids take whole rows overlapping [Top, Bottom). In variable-size mode only
// the viewport fields and counts are filled in.
//
// ErrGeometryUnavailable is returned when fixed-size dimensions are unknown.
func ComputeGeometry(in GeometryInput) (RenderOpts, error) {
	r := RenderOpts{
		Top:      in.Viewport.Y - in.RenderMargin,
		Height:   in.Viewport.Height + 2*in.RenderMargin,
		NumItems: max(in.NumItems, 0),
	}
	r.Bottom = r.Top + r.Height
	r.NumRows = r.NumItems

	if !in.FixedSize {
		return r, nil
	}
	if in.CellHeight <= 0 || (in.Tiled && in.CellWidth <= 0) {
		return r, ErrGeometryUnavailable
	}

	r.CellWidth, r.CellHeight = in.CellWidth, in.CellHeight
	r.FullWidth = in.CellWidth + in.Spacing
	r.FullHeight = in.CellHeight + in.Spacing

	r.NumPerRow = 1
	if in.Tiled {
		r.MaxWidth = in.Viewport.Width
		if r.FullWidth > 0 {
			r.NumPerRow = max(1, r.MaxWidth/r.FullWidth)
		}
		r.NumRows = ceilDiv(r.NumItems, r.NumPerRow)
	}

	firstRow := max(floorDiv(r.Top, r.FullHeight), 0)
	lastRow := firstRow
	switch {
	case r.Height <= 0:
	case in.Tiled:
		lastRow = max(ceilDiv(r.Bottom, r.FullHeight), firstRow)
	default:
		// The row starting exactly at Bottom touches the viewport edge and
		// is laid out too.
		lastRow = max(floorDiv(r.Bottom, r.FullHeight)+1, firstRow)
	}
	r.Start = min(firstRow*r.NumPerRow, r.NumItems)
	r.End = max(min(lastRow*r.NumPerRow, r.NumItems), r.Start)
	return r, nil
}

// gridPosition places index i on the fixed grid described by r.
func (r RenderOpts) gridPosition(i int, tiled bool, listWidth int) Position {
	if tiled {
		return Position{
			X:      (i % r.NumPerRow) * r.FullWidth,
			Y:      (i / r.NumPerRow) * r.FullHeight,
			Width:  r.CellWidth,
			Height: r.CellHeight,
		}
	}
	return Position{
		X:      0,
		Y:      i * r.FullHeight,
		Width:  listWidth,
		Height: r.CellHeight,
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
