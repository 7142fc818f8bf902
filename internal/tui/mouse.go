package tui

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/gesture"
	"github.com/evanschultz/gantt/internal/timeline"
)

// pointerSurface is the terminal's shared pointer. While captured, every
// mouse event goes to the gesture tracker instead of hit testing.
type pointerSurface struct {
	captured bool
}

// Capture implements gesture.Surface.
func (p *pointerSurface) Capture() { p.captured = true }

// Release implements gesture.Surface.
func (p *pointerSurface) Release() { p.captured = false }

// scene is the derived geometry for one frame.
type scene struct {
	window timeline.Window
	bars   []timeline.Bar
	paths  []timeline.Path
	hits   timeline.HitMap
}

// scene lays out bars, routes edges and builds the hit map from current state.
func (m Model) scene() scene {
	w := m.window()
	bars := timeline.Layout(w, m.tasks, m.zoom)
	paths := timeline.RouteAll(bars, m.deps)
	return scene{
		window: w,
		bars:   bars,
		paths:  paths,
		hits:   timeline.BuildHitMap(m.scale, bars, paths),
	}
}

func (m Model) gridLeft() int {
	return m.panelWidth + 1
}

// contentCell maps a screen cell to grid content (column, line). Lines below
// zero are in the header.
func (m Model) contentCell(x, y int) (int, int) {
	return x - m.gridLeft() + m.scrollX, y - headerLines + 2*m.scrollY
}

// pixelAt maps a screen cell to the pixel at its center.
func (m Model) pixelAt(x, y int) (int, int) {
	cx, line := m.contentCell(x, y)
	return m.scale.Px(cx) + m.scale.CellPixels/2, line*timeline.LineHeightPx + timeline.LineHeightPx/2
}

// rowAt returns the task row under screen line y.
func (m Model) rowAt(y int) (int, bool) {
	line := y - headerLines
	if line < 0 || line >= 2*m.visibleRows() {
		return 0, false
	}
	row := m.scrollY + line/2
	if row >= len(m.tasks) {
		return 0, false
	}
	return row, true
}

// handleMouseWheel scrolls rows vertically and days horizontally.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.scrollY--
	case tea.MouseWheelDown:
		m.scrollY++
	case tea.MouseWheelLeft:
		m.scrollX -= m.scrollStep()
	case tea.MouseWheelRight:
		m.scrollX += m.scrollStep()
	}
	m.clampScroll()
	return m, nil
}

// handleMouseClick starts a gesture or acts on the element under the pointer.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.help.ShowAll || m.mode != modeNone || m.surface.captured {
		return m, nil
	}
	if msg.Y < headerLines {
		return m, nil
	}
	if msg.X == m.panelWidth {
		if err := m.tracker.BeginColumnResize(m.panelWidth, m.minPanel, m.maxPanel, msg.X, msg.Y); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.status = "resizing panel"
		return m, nil
	}
	if msg.X < m.panelWidth {
		if row, ok := m.rowAt(msg.Y); ok {
			m.selected = row
			m.status = "selected " + m.tasks[row].Name
		}
		return m, nil
	}

	cx, line := m.contentCell(msg.X, msg.Y)
	region, ok := m.scene().hits.Top(cx, line)
	if !ok {
		return m, nil
	}
	var mode gesture.Mode
	switch region.Part {
	case timeline.PartEdgeMarker:
		m.hoverEdge = ""
		return m, m.deleteDependencyCmd(region.EdgeID)
	case timeline.PartEdgePath:
		m.hoverEdge = region.EdgeID
		m.status = "dependency " + region.EdgeID + " (click ◆ to remove)"
		return m, nil
	case timeline.PartHandleStart:
		mode = gesture.ModeResizeStart
	case timeline.PartHandleEnd:
		mode = gesture.ModeResizeEnd
	case timeline.PartConnectorStart, timeline.PartConnectorEnd:
		mode = gesture.ModeLink
	default:
		mode = gesture.ModeMove
	}
	task, ok := m.taskByID(region.TaskID)
	if !ok {
		return m, nil
	}
	m.focusTaskByID(task.ID)
	px, py := m.pixelAt(msg.X, msg.Y)
	if err := m.tracker.BeginTask(mode, task, px, py, m.zoom.PixelsPerDay()); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = fmt.Sprintf("%s: %s", mode, task.Name)
	return m, nil
}

// handleMouseMotion feeds the active gesture or updates edge hover.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.surface.captured {
		return m.feedGesture(msg.X, msg.Y), nil
	}
	m.hoverEdge = ""
	if m.mode != modeNone || msg.X <= m.panelWidth || msg.Y < headerLines {
		return m, nil
	}
	cx, line := m.contentCell(msg.X, msg.Y)
	if region, ok := m.scene().hits.Top(cx, line); ok {
		if region.Part == timeline.PartEdgePath || region.Part == timeline.PartEdgeMarker {
			m.hoverEdge = region.EdgeID
		}
	}
	return m, nil
}

// handleMouseRelease commits the final frame and ends the gesture.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	state, ok := m.tracker.Active()
	if !ok {
		return m, nil
	}
	m = m.feedGesture(msg.X, msg.Y)
	var under []string
	if state.Mode == gesture.ModeLink {
		cx, line := m.contentCell(msg.X, msg.Y)
		under = m.scene().hits.TaskIDsAt(cx, line)
	}
	res, _ := m.tracker.End(under)
	m.preview = nil
	return m.finishGesture(res)
}

// feedGesture moves the active gesture to screen cell (x, y) and applies the
// resulting frame.
func (m Model) feedGesture(x, y int) Model {
	state, ok := m.tracker.Active()
	if !ok {
		return m
	}
	gx, gy := x, y
	if state.Mode != gesture.ModeColumnResize {
		gx, gy = m.pixelAt(x, y)
	}
	upd, changed := m.tracker.Move(gx, gy)
	if !changed {
		return m
	}
	switch upd.Kind {
	case gesture.UpdateDates:
		if err := m.svc.ApplyDragFrame(context.Background(), upd.TaskID, upd.StartDate, upd.EndDate); err != nil {
			m.status = "drag failed: " + err.Error()
			return m
		}
		m.replaceDates(upd.TaskID, upd.StartDate, upd.EndDate)
		m.status = fmt.Sprintf("%s → %s", upd.StartDate.Format(time.DateOnly), upd.EndDate.Format(time.DateOnly))
	case gesture.UpdatePreview:
		preview := upd
		m.preview = &preview
	case gesture.UpdateWidth:
		m.panelWidth = upd.Width
		m.clampScroll()
	}
	return m
}

// finishGesture turns an ended gesture into its effect.
func (m Model) finishGesture(res gesture.Result) (Model, tea.Cmd) {
	switch res.Mode {
	case gesture.ModeColumnResize:
		m.status = fmt.Sprintf("panel width %d", m.panelWidth)
		return m, nil
	case gesture.ModeLink:
		if res.Link == nil {
			m.status = "link canceled"
			return m, nil
		}
		return m, m.createDependencyCmd(res.Link.FromTaskID, res.Link.ToTaskID)
	}

	if res.Click {
		if m.focusTaskByID(res.TaskID) {
			m.status = "selected " + m.tasks[m.selected].Name
		}
		return m, nil
	}
	if err := m.svc.FinishDrag(context.Background(), res.TaskID); err != nil {
		m.status = "save failed: " + err.Error()
		return m, m.loadData
	}
	m.pendingFocusTaskID = res.TaskID
	if res.Changed {
		m.status = fmt.Sprintf("%s %s → %s", res.Mode, res.StartDate.Format(time.DateOnly), res.EndDate.Format(time.DateOnly))
	}
	if res.Canceled {
		m.status = "gesture canceled"
	}
	return m, m.loadData
}

// cancelGesture ends any active gesture and finishes it like a release. The
// bool reports whether a gesture was active.
func (m Model) cancelGesture() (Model, tea.Cmd, bool) {
	res, ok := m.tracker.Cancel()
	if !ok {
		return m, nil, false
	}
	m.preview = nil
	m, cmd := m.finishGesture(res)
	return m, cmd, true
}

// dayAtCell returns the calendar day under content column cx.
func (m Model) dayAtCell(w timeline.Window, cx int) (time.Time, bool) {
	px := m.scale.Px(cx)
	if px < 0 {
		return time.Time{}, false
	}
	idx := px / m.zoom.PixelsPerDay()
	if idx >= w.Len() {
		return time.Time{}, false
	}
	return domain.AddDays(w.Start, idx), true
}
