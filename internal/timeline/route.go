package timeline

import "github.com/evanschultz/gantt/internal/domain"

// Routing constants in pixels.
const (
	// MinDirectGapPx is the smallest horizontal gap drawn as a direct route.
	MinDirectGapPx = 24
	// StubPx is how far a stub route runs past the source and before the target.
	StubPx = 16
)

// RouteKind names the shape of a dependency path.
type RouteKind int

const (
	RouteStraight RouteKind = iota
	RouteElbow
	RouteStub
)

// String implements fmt.Stringer.
func (k RouteKind) String() string {
	switch k {
	case RouteStraight:
		return "straight"
	case RouteElbow:
		return "elbow"
	default:
		return "stub"
	}
}

// Point is a pixel coordinate.
type Point struct {
	X int
	Y int
}

// Path is an orthogonal polyline from the source bar's right edge to the
// target bar's left edge. The arrowhead sits on the last point.
type Path struct {
	EdgeID string
	FromID string
	ToID   string
	Kind   RouteKind
	Points []Point
}

// Head is the arrowhead position.
func (p Path) Head() Point {
	if len(p.Points) == 0 {
		return Point{}
	}
	return p.Points[len(p.Points)-1]
}

// Length sums the segment lengths.
func (p Path) Length() int {
	total := 0
	for i := 1; i < len(p.Points); i++ {
		total += segmentLen(p.Points[i-1], p.Points[i])
	}
	return total
}

// Midpoint is the point halfway along the path. It anchors the delete marker.
func (p Path) Midpoint() Point {
	if len(p.Points) == 0 {
		return Point{}
	}
	remaining := p.Length() / 2
	for i := 1; i < len(p.Points); i++ {
		a, b := p.Points[i-1], p.Points[i]
		n := segmentLen(a, b)
		if remaining <= n {
			return Point{X: a.X + sign(b.X-a.X)*remaining, Y: a.Y + sign(b.Y-a.Y)*remaining}
		}
		remaining -= n
	}
	return p.Head()
}

// Route computes the path for one edge from the current bar geometry.
func Route(from, to Bar) Path {
	fromEndX, toStartX := from.EndPx(), to.OffsetPx
	fromY, toY := from.CenterY(), to.CenterY()
	path := Path{
		EdgeID: domain.DependencyID(from.TaskID, to.TaskID),
		FromID: from.TaskID,
		ToID:   to.TaskID,
	}

	if toStartX-fromEndX > MinDirectGapPx {
		if fromY == toY {
			path.Kind = RouteStraight
			path.Points = []Point{{fromEndX, fromY}, {toStartX, toY}}
			return path
		}
		midX := fromEndX + (toStartX-fromEndX)/2
		path.Kind = RouteElbow
		path.Points = []Point{{fromEndX, fromY}, {midX, fromY}, {midX, toY}, {toStartX, toY}}
		return path
	}

	outX := fromEndX + StubPx
	inX := toStartX - StubPx
	gutterY := from.GutterY()
	if toY < fromY {
		gutterY = fromY - LineHeightPx
	}
	path.Kind = RouteStub
	path.Points = []Point{
		{fromEndX, fromY},
		{outX, fromY},
		{outX, gutterY},
		{inX, gutterY},
		{inX, toY},
		{toStartX, toY},
	}
	return path
}

// RouteAll routes every edge whose endpoints both have a bar. Dangling or
// off-window edges are skipped.
func RouteAll(bars []Bar, deps []domain.Dependency) []Path {
	byID := make(map[string]Bar, len(bars))
	for _, b := range bars {
		byID[b.TaskID] = b
	}
	out := make([]Path, 0, len(deps))
	for _, dep := range deps {
		from, ok := byID[dep.FromTaskID]
		if !ok {
			continue
		}
		to, ok := byID[dep.ToTaskID]
		if !ok {
			continue
		}
		out = append(out, Route(from, to))
	}
	return out
}

func segmentLen(a, b Point) int {
	return abs(b.X-a.X) + abs(b.Y-a.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
