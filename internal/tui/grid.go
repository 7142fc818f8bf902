package tui

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/timeline"
)

// cellKind selects the style of one grid cell.
type cellKind int

const (
	kindBlank cellKind = iota
	kindToday
	kindEdge
	kindEdgeHover
	kindMarker
	kindMarkerHover
	kindBarTodo
	kindBarInProgress
	kindBarCompleted
	kindBarOverdue
	kindBarSelected
	kindConnector
	kindPreview
)

// gridCell is one rune on the canvas.
type gridCell struct {
	r    rune
	kind cellKind
}

// canvas is the visible slice of the grid: cols columns starting at content
// column x0, lines lines starting at content line y0.
type canvas struct {
	x0, y0 int
	cols   int
	lines  int
	cells  [][]gridCell
}

func newCanvas(x0, y0, cols, lines int) *canvas {
	c := &canvas{x0: x0, y0: y0, cols: cols, lines: lines, cells: make([][]gridCell, lines)}
	for i := range c.cells {
		row := make([]gridCell, cols)
		for j := range row {
			row[j] = gridCell{r: ' '}
		}
		c.cells[i] = row
	}
	return c
}

// set writes a cell in content coordinates; off-canvas writes are dropped.
func (c *canvas) set(x, line int, r rune, kind cellKind) {
	x -= c.x0
	line -= c.y0
	if x < 0 || x >= c.cols || line < 0 || line >= c.lines {
		return
	}
	c.cells[line][x] = gridCell{r: r, kind: kind}
}

func (c *canvas) at(x, line int) (gridCell, bool) {
	x -= c.x0
	line -= c.y0
	if x < 0 || x >= c.cols || line < 0 || line >= c.lines {
		return gridCell{}, false
	}
	return c.cells[line][x], true
}

// gridStyles maps cell kinds to lipgloss styles.
type gridStyles map[cellKind]lipgloss.Style

func newGridStyles(accent, muted, dim color.Color) gridStyles {
	ink := lipgloss.Color("16")
	bar := func(bg string) lipgloss.Style {
		return lipgloss.NewStyle().Background(lipgloss.Color(bg)).Foreground(ink)
	}
	return gridStyles{
		kindBlank:         lipgloss.NewStyle(),
		kindToday:         lipgloss.NewStyle().Foreground(lipgloss.Color("166")),
		kindEdge:          lipgloss.NewStyle().Foreground(muted),
		kindEdgeHover:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		kindMarker:        lipgloss.NewStyle().Foreground(muted),
		kindMarkerHover:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		kindBarTodo:       bar("250"),
		kindBarInProgress: bar("75"),
		kindBarCompleted:  bar("114"),
		kindBarOverdue:    bar("210"),
		kindBarSelected:   lipgloss.NewStyle().Background(accent).Foreground(lipgloss.Color("231")).Bold(true),
		kindConnector:     lipgloss.NewStyle().Foreground(dim),
		kindPreview:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// statusColor is the swatch used for a status in the side panel.
func statusColor(s domain.Status) color.Color {
	switch s {
	case domain.StatusInProgress:
		return lipgloss.Color("75")
	case domain.StatusCompleted:
		return lipgloss.Color("114")
	case domain.StatusOverdue:
		return lipgloss.Color("210")
	default:
		return lipgloss.Color("250")
	}
}

func barKind(s domain.Status) cellKind {
	switch s {
	case domain.StatusInProgress:
		return kindBarInProgress
	case domain.StatusCompleted:
		return kindBarCompleted
	case domain.StatusOverdue:
		return kindBarOverdue
	default:
		return kindBarTodo
	}
}

// render turns one canvas line into styled text, one Render call per run.
func (c *canvas) render(line int, styles gridStyles) string {
	var b strings.Builder
	row := c.cells[line]
	for i := 0; i < len(row); {
		j := i
		var run strings.Builder
		for j < len(row) && row[j].kind == row[i].kind {
			run.WriteRune(row[j].r)
			j++
		}
		if row[i].kind == kindBlank {
			b.WriteString(run.String())
		} else {
			b.WriteString(styles[row[i].kind].Render(run.String()))
		}
		i = j
	}
	return b.String()
}

// drawGrid paints today, edges, bars, connectors, markers and the link
// preview, in stacking order. Connectors never cover an edge cell.
func (m Model) drawGrid(sc scene, c *canvas) {
	today := m.scale.Cell(sc.window.AnchorIndex() * m.zoom.PixelsPerDay())
	for line := c.y0; line < c.y0+c.lines; line++ {
		c.set(today, line, '┊', kindToday)
	}

	for _, p := range sc.paths {
		kind := kindEdge
		if p.EdgeID == m.hoverEdge {
			kind = kindEdgeHover
		}
		drawPath(c, m.scale.Trace(p), kind)
	}

	selectedID := ""
	if task, ok := m.selectedTask(); ok {
		selectedID = task.ID
	}
	for _, bar := range sc.bars {
		task := m.tasks[bar.Row]
		kind := barKind(task.Status)
		if task.ID == selectedID {
			kind = kindBarSelected
		}
		start, end := m.scale.BarCells(bar)
		line := m.scale.Line(bar.CenterY())
		label := []rune(" " + task.Name)
		for x := start; x < end; x++ {
			r := ' '
			if i := x - start; i < len(label) && i < end-start-1 {
				r = label[i]
			}
			c.set(x, line, r, kind)
		}
		if end-start >= 3 {
			c.set(start, line, '▐', kind)
			c.set(end-1, line, '▌', kind)
		}
		for _, x := range []int{start - 1, end} {
			if cell, ok := c.at(x, line); ok && (cell.kind == kindBlank || cell.kind == kindToday) {
				c.set(x, line, '●', kindConnector)
			}
		}
	}

	for _, p := range sc.paths {
		kind := kindMarker
		if p.EdgeID == m.hoverEdge {
			kind = kindMarkerHover
		}
		mk := m.scale.Marker(p)
		c.set(mk.X, mk.Line, '◆', kind)
	}

	if m.preview != nil {
		from := timeline.CellPoint{X: m.scale.Cell(m.preview.From.X), Line: m.scale.Line(m.preview.From.Y)}
		to := timeline.CellPoint{X: m.scale.Cell(m.preview.To.X), Line: m.scale.Line(m.preview.To.Y)}
		for x := min(from.X, to.X); x <= max(from.X, to.X); x++ {
			c.set(x, from.Line, '┄', kindPreview)
		}
		for line := min(from.Line, to.Line); line <= max(from.Line, to.Line); line++ {
			c.set(to.X, line, '┆', kindPreview)
		}
		c.set(to.X, to.Line, '◎', kindPreview)
	}
}

// drawPath draws box-drawing runes along traced cells, ending in an arrowhead.
func drawPath(c *canvas, cells []timeline.CellPoint, kind cellKind) {
	for i, cur := range cells {
		var r rune
		switch {
		case i == len(cells)-1:
			r = '▶'
		case i == 0:
			r = '─'
			if cells[1].X == cur.X {
				r = '│'
			}
		default:
			r = joint(cells[i-1], cur, cells[i+1])
		}
		if prev, ok := c.at(cur.X, cur.Line); ok && (prev.kind == kindEdge || prev.kind == kindEdgeHover) && prev.r != r && r != '▶' {
			r = '┼'
		}
		c.set(cur.X, cur.Line, r, kind)
	}
}

// joint picks the rune for cur given its neighbours on the path.
func joint(prev, cur, next timeline.CellPoint) rune {
	inH := prev.Line == cur.Line
	outH := next.Line == cur.Line
	switch {
	case inH && outH:
		return '─'
	case !inH && !outH:
		return '│'
	case inH:
		fromLeft := prev.X < cur.X
		down := next.Line > cur.Line
		switch {
		case fromLeft && down:
			return '┐'
		case fromLeft:
			return '┘'
		case down:
			return '┌'
		default:
			return '└'
		}
	default:
		fromAbove := prev.Line < cur.Line
		right := next.X > cur.X
		switch {
		case fromAbove && right:
			return '└'
		case fromAbove:
			return '┘'
		case right:
			return '┌'
		default:
			return '┐'
		}
	}
}

// axisRows renders the month row and the tick row for the visible columns.
func (m Model) axisRows(sc scene, x0, cols int) (string, string) {
	month := []rune(strings.Repeat(" ", cols))
	ticks := []rune(strings.Repeat(" ", cols))
	write := func(dst []rune, at int, text string) {
		for i, r := range []rune(text) {
			if at+i >= 0 && at+i < len(dst) {
				dst[at+i] = r
			}
		}
	}
	ppd := m.zoom.PixelsPerDay()
	days := sc.window.Days()
	for _, g := range timeline.MonthGroups(days) {
		at := m.scale.Cell(g.First*ppd) - x0
		last := m.scale.Cell((g.First+g.Days)*ppd) - x0
		if last <= 0 || at >= cols {
			continue
		}
		write(month, max(at, 0), "│"+g.Label())
	}
	for idx, d := range days {
		at := m.scale.Cell(idx*ppd) - x0
		if at < 0 || at >= cols {
			continue
		}
		if label, ok := timeline.TickLabel(d, m.zoom); ok {
			write(ticks, at, label)
		}
	}
	if at := m.scale.Cell(sc.window.AnchorIndex()*ppd) - x0; at >= 0 && at < cols {
		ticks[at] = '▼'
	}
	return string(month), string(ticks)
}
