package timeline

import "slices"

// DefaultCellPixels is the pixel width of one terminal cell.
const DefaultCellPixels = 10

// Scale converts pixel geometry into terminal cells and lines.
type Scale struct {
	CellPixels int
}

// NewScale returns a scale, falling back to DefaultCellPixels for non-positive widths.
func NewScale(cellPixels int) Scale {
	if cellPixels <= 0 {
		cellPixels = DefaultCellPixels
	}
	return Scale{CellPixels: cellPixels}
}

// Cell maps a pixel x coordinate to its column.
func (s Scale) Cell(px int) int {
	return floorDiv(px, s.CellPixels)
}

// Line maps a pixel y coordinate to its line.
func (s Scale) Line(py int) int {
	return floorDiv(py, LineHeightPx)
}

// Px maps a column back to the pixel at its left edge.
func (s Scale) Px(cell int) int {
	return cell * s.CellPixels
}

// BarCells returns the half-open column range [start, end) a bar covers.
// Every bar covers at least one column.
func (s Scale) BarCells(b Bar) (int, int) {
	start := s.Cell(b.OffsetPx)
	end := max(s.Cell(b.EndPx()), start+1)
	return start, end
}

// CellPoint is a (column, line) pair.
type CellPoint struct {
	X    int
	Line int
}

// Trace rasterizes a path into the ordered cells it passes through. It starts
// on the column right of the source bar and ends on the column left of the
// target bar, where the arrowhead goes.
func (s Scale) Trace(p Path) []CellPoint {
	if len(p.Points) < 2 {
		return nil
	}
	cells := make([]CellPoint, 0)
	last := len(p.Points) - 1
	toCell := func(i int) CellPoint {
		pt := p.Points[i]
		x := s.Cell(pt.X)
		if i == last {
			x = s.Cell(pt.X - 1)
		}
		return CellPoint{X: x, Line: s.Line(pt.Y)}
	}
	cur := toCell(0)
	cells = append(cells, cur)
	for i := 1; i <= last; i++ {
		next := toCell(i)
		for cur != next {
			switch {
			case cur.X != next.X:
				cur.X += sign(next.X - cur.X)
			default:
				cur.Line += sign(next.Line - cur.Line)
			}
			cells = append(cells, cur)
		}
	}
	return cells
}

// Marker is the cell holding the path's delete target.
func (s Scale) Marker(p Path) CellPoint {
	mid := p.Midpoint()
	return CellPoint{X: s.Cell(mid.X), Line: s.Line(mid.Y)}
}

// Part names the element under the pointer.
type Part int

const (
	PartBody Part = iota
	PartHandleStart
	PartHandleEnd
	PartConnectorStart
	PartConnectorEnd
	PartEdgePath
	PartEdgeMarker
)

// String implements fmt.Stringer.
func (p Part) String() string {
	switch p {
	case PartBody:
		return "body"
	case PartHandleStart:
		return "handle-start"
	case PartHandleEnd:
		return "handle-end"
	case PartConnectorStart:
		return "connector-start"
	case PartConnectorEnd:
		return "connector-end"
	case PartEdgePath:
		return "edge-path"
	default:
		return "edge-marker"
	}
}

// Region is a horizontal run of cells [X0, X1] on one line.
type Region struct {
	Part   Part
	TaskID string
	EdgeID string
	Line   int
	X0     int
	X1     int
}

func (r Region) contains(x, line int) bool {
	return r.Line == line && x >= r.X0 && x <= r.X1
}

// HitMap answers "what is under this cell". Later regions sit on top.
type HitMap struct {
	regions []Region
}

// Add stacks a region on top of the existing ones.
func (h *HitMap) Add(r Region) {
	h.regions = append(h.regions, r)
}

// At lists the regions under a cell, topmost first.
func (h HitMap) At(x, line int) []Region {
	out := make([]Region, 0)
	for _, r := range slices.Backward(h.regions) {
		if r.contains(x, line) {
			out = append(out, r)
		}
	}
	return out
}

// Top returns the topmost region under a cell.
func (h HitMap) Top(x, line int) (Region, bool) {
	for _, r := range slices.Backward(h.regions) {
		if r.contains(x, line) {
			return r, true
		}
	}
	return Region{}, false
}

// TaskIDsAt lists the task ids tagged on the regions under a cell, topmost
// first. Untagged regions contribute an empty string.
func (h HitMap) TaskIDsAt(x, line int) []string {
	regions := h.At(x, line)
	out := make([]string, 0, len(regions))
	for _, r := range regions {
		out = append(out, r.TaskID)
	}
	return out
}

// BuildHitMap registers edge paths, bars, handles, connectors and edge
// markers, in that stacking order.
func BuildHitMap(s Scale, bars []Bar, paths []Path) HitMap {
	var h HitMap
	for _, p := range paths {
		for _, c := range s.Trace(p) {
			h.Add(Region{Part: PartEdgePath, EdgeID: p.EdgeID, Line: c.Line, X0: c.X, X1: c.X})
		}
	}
	for _, b := range bars {
		start, end := s.BarCells(b)
		line := s.Line(b.CenterY())
		h.Add(Region{Part: PartBody, TaskID: b.TaskID, Line: line, X0: start, X1: end - 1})
		if end-start >= 3 {
			h.Add(Region{Part: PartHandleStart, TaskID: b.TaskID, Line: line, X0: start, X1: start})
			h.Add(Region{Part: PartHandleEnd, TaskID: b.TaskID, Line: line, X0: end - 1, X1: end - 1})
		}
		h.Add(Region{Part: PartConnectorStart, TaskID: b.TaskID, Line: line, X0: start - 1, X1: start - 1})
		h.Add(Region{Part: PartConnectorEnd, TaskID: b.TaskID, Line: line, X0: end, X1: end})
	}
	for _, p := range paths {
		m := s.Marker(p)
		h.Add(Region{Part: PartEdgeMarker, EdgeID: p.EdgeID, Line: m.Line, X0: m.X, X1: m.X})
	}
	return h
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
