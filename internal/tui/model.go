package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	"github.com/evanschultz/gantt/internal/app"
	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/gesture"
	"github.com/evanschultz/gantt/internal/timeline"
)

// Service is the task coordinator the model reads from and sends mutations to.
type Service interface {
	ListTasks(app.ListOptions) []domain.Task
	Dependencies() []domain.Dependency
	CreateTask(context.Context, domain.Draft) (domain.Task, error)
	UpdateTask(context.Context, string, domain.Draft) (domain.Task, error)
	DeleteTask(context.Context, string) error
	CreateDependency(context.Context, string, string) (domain.Dependency, bool, error)
	DeleteDependency(context.Context, string) (bool, error)
	DependencyChain(string) ([]domain.Task, error)
	ApplyDragFrame(context.Context, string, time.Time, time.Time) error
	FinishDrag(context.Context, string) error
}

var _ Service = (*app.Service)(nil)

// inputMode represents a selectable mode.
type inputMode int

const (
	modeNone inputMode = iota
	modeSearch
	modeCreateTask
	modeEditTask
	modeConfirmDelete
)

// Fixed chrome around the grid: title, month and tick rows on top; status
// line and bordered help bar below.
const (
	headerLines = 3
	footerLines = 3
)

// Model is the root bubbletea model.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	status string

	help help.Model
	keys keyMap

	now      func() time.Time
	copyText func(string) error

	daysBefore int
	daysAfter  int
	zoom       domain.ZoomLevel
	scale      timeline.Scale
	panelWidth int
	minPanel   int
	maxPanel   int

	listOpts app.ListOptions
	tasks    []domain.Task
	deps     []domain.Dependency
	selected int
	scrollX  int
	scrollY  int

	pendingFocusTaskID string

	mode         inputMode
	searchInput  textinput.Model
	form         taskForm
	deleteTaskID string

	surface   *pointerSurface
	tracker   *gesture.Tracker
	preview   *gesture.Update
	hoverEdge string

	markdown *markdownRenderer
}

// loadedMsg carries a fresh read of the collection.
type loadedMsg struct {
	tasks []domain.Task
	deps  []domain.Dependency
}

// actionMsg reports the outcome of one mutation.
type actionMsg struct {
	err         error
	status      string
	reload      bool
	closeForm   bool
	focusTaskID string
}

// NewModel constructs the root model.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "task name"
	searchInput.CharLimit = 120
	def := DefaultTimelineConfig()
	surface := &pointerSurface{}
	m := Model{
		svc:         svc,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		now:         time.Now,
		copyText:    clipboard.WriteAll,
		daysBefore:  def.DaysBefore,
		daysAfter:   def.DaysAfter,
		zoom:        def.Zoom,
		scale:       timeline.NewScale(def.CellPixels),
		panelWidth:  def.PanelWidth,
		minPanel:    def.MinPanelWidth,
		maxPanel:    def.MaxPanelWidth,
		listOpts:    app.ListOptions{Status: app.StatusAll, Sort: app.SortStartDate},
		searchInput: searchInput,
		surface:     surface,
		tracker:     gesture.NewTracker(surface),
		markdown:    &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	if m.listOpts.Sort == "" {
		m.listOpts.Sort = app.SortStartDate
	}
	if m.listOpts.Status == "" {
		m.listOpts.Status = app.StatusAll
	}
	return m
}

// Init loads the collection.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		first := !m.ready
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m, cmd, _ = m.cancelGesture()
		if first {
			m.jumpToToday()
		}
		m.clampScroll()
		m.ensureRowVisible()
		return m, cmd

	case loadedMsg:
		selectedID := m.pendingFocusTaskID
		if selectedID == "" {
			if task, ok := m.selectedTask(); ok {
				selectedID = task.ID
			}
		}
		m.pendingFocusTaskID = ""
		m.tasks = msg.tasks
		m.deps = msg.deps
		m.selected = clamp(m.selected, 0, len(m.tasks)-1)
		if selectedID != "" {
			m.focusTaskByID(selectedID)
		}
		if m.hoverEdge != "" && !m.hasEdge(m.hoverEdge) {
			m.hoverEdge = ""
		}
		m.ensureRowVisible()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			var fieldErrs domain.FieldErrors
			if errors.As(msg.err, &fieldErrs) && (m.mode == modeCreateTask || m.mode == modeEditTask) {
				m.form.errs = fieldErrs
				m.status = fmt.Sprintf("fix %d field(s)", len(fieldErrs))
				return m, nil
			}
			m.status = "error: " + msg.err.Error()
			if msg.reload {
				return m, m.loadData
			}
			return m, nil
		}
		if msg.closeForm {
			m.mode = modeNone
			m.form = taskForm{}
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.pendingFocusTaskID = msg.focusTaskID
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeCreateTask, modeEditTask:
			return m.handleFormKey(msg)
		case modeConfirmDelete:
			return m.handleConfirmKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// loadData reads the filtered, sorted task list and the edge set.
func (m Model) loadData() tea.Msg {
	return loadedMsg{
		tasks: m.svc.ListTasks(m.listOpts),
		deps:  m.svc.Dependencies(),
	}
}

// handleNormalModeKey handles keys while no modal is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		// Ending the gesture first writes frames held for release.
		m, _, _ = m.cancelGesture()
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if next, cmd, ok := m.cancelGesture(); ok {
			return next, cmd
		}
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
			return m, nil
		}
		if m.listOpts.Search != "" {
			m.listOpts.Search = ""
			m.searchInput.SetValue("")
			m.status = "search cleared"
			return m, m.loadData
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveUp):
		if m.selected > 0 {
			m.selected--
		}
		m.ensureRowVisible()
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}
		m.ensureRowVisible()
		return m, nil
	case key.Matches(msg, m.keys.scrollLeft):
		m.scrollX -= m.scrollStep()
		m.clampScroll()
		return m, nil
	case key.Matches(msg, m.keys.scrollRight):
		m.scrollX += m.scrollStep()
		m.clampScroll()
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		return m, m.startTaskForm(nil)
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.startTaskForm(&task)
	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.deleteTaskID = task.ID
		m.status = "confirm delete"
		return m, nil
	case key.Matches(msg, m.keys.zoom):
		m.setZoom(m.zoom.Next())
		m.status = "zoom: " + string(m.zoom)
		return m, nil
	case key.Matches(msg, m.keys.today):
		m.jumpToToday()
		m.status = "today: " + domain.Day(m.now()).Format(time.DateOnly)
		return m, nil
	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.listOpts.Search)
		m.searchInput.CursorEnd()
		m.status = "search"
		return m, m.searchInput.Focus()
	case key.Matches(msg, m.keys.filter):
		m.listOpts.Status = app.NextStatusFilter(m.listOpts.Status)
		m.status = "filter: " + m.listOpts.Status
		return m, m.loadData
	case key.Matches(msg, m.keys.sort):
		m.listOpts.Sort = m.listOpts.Sort.Next()
		m.status = "sort: " + string(m.listOpts.Sort)
		return m, m.loadData
	case key.Matches(msg, m.keys.shiftEarly):
		return m.shiftSelected(-1)
	case key.Matches(msg, m.keys.shiftLate):
		return m.shiftSelected(1)
	case key.Matches(msg, m.keys.copyTask):
		task, ok := m.selectedTask()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if err := m.copyText(taskSummary(task)); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied " + task.Name
		return m, nil
	default:
		return m, nil
	}
}

// handleSearchKey edits the live name filter.
func (m Model) handleSearchKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.listOpts.Search = ""
		m.status = "search cleared"
		return m, m.loadData
	case "enter":
		m.mode = modeNone
		m.searchInput.Blur()
		if m.listOpts.Search == "" {
			m.status = "ready"
		} else {
			m.status = "search: " + m.listOpts.Search
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.listOpts.Search = m.searchInput.Value()
	return m, tea.Batch(cmd, m.loadData)
}

// handleConfirmKey resolves the delete confirmation.
func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		id := m.deleteTaskID
		m.mode = modeNone
		m.deleteTaskID = ""
		return m, m.deleteTaskCmd(id)
	case "n", "esc":
		m.mode = modeNone
		m.deleteTaskID = ""
		m.status = "delete canceled"
	}
	return m, nil
}

// shiftSelected moves the selected task by delta days as a one-frame drag.
func (m Model) shiftSelected(delta int) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTask()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	ctx := context.Background()
	start, end := domain.AddDays(task.StartDate, delta), domain.AddDays(task.EndDate, delta)
	if err := m.svc.ApplyDragFrame(ctx, task.ID, start, end); err != nil {
		m.status = "move failed: " + err.Error()
		return m, nil
	}
	if err := m.svc.FinishDrag(ctx, task.ID); err != nil {
		m.status = "move failed: " + err.Error()
		return m, m.loadData
	}
	m.replaceDates(task.ID, start, end)
	m.pendingFocusTaskID = task.ID
	m.status = fmt.Sprintf("%s: %s → %s", task.Name, start.Format(time.DateOnly), end.Format(time.DateOnly))
	return m, m.loadData
}

// deleteTaskCmd deletes one task.
func (m Model) deleteTaskCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.DeleteTask(context.Background(), id); err != nil {
			return actionMsg{err: err, reload: true}
		}
		return actionMsg{status: "deleted task", reload: true}
	}
}

// createDependencyCmd links from -> to.
func (m Model) createDependencyCmd(fromID, toID string) tea.Cmd {
	return func() tea.Msg {
		dep, created, err := m.svc.CreateDependency(context.Background(), fromID, toID)
		if err != nil {
			return actionMsg{err: err}
		}
		if !created {
			return actionMsg{status: "dependency already exists: " + dep.ID}
		}
		return actionMsg{status: "linked " + dep.ID, reload: true}
	}
}

// deleteDependencyCmd removes one edge.
func (m Model) deleteDependencyCmd(edgeID string) tea.Cmd {
	return func() tea.Msg {
		removed, err := m.svc.DeleteDependency(context.Background(), edgeID)
		if err != nil {
			return actionMsg{err: err, reload: true}
		}
		if !removed {
			return actionMsg{status: "dependency already removed", reload: true}
		}
		return actionMsg{status: "unlinked " + edgeID, reload: true}
	}
}

// selectedTask returns the highlighted row.
func (m Model) selectedTask() (domain.Task, bool) {
	if m.selected < 0 || m.selected >= len(m.tasks) {
		return domain.Task{}, false
	}
	return m.tasks[m.selected], true
}

// taskByID finds a loaded task.
func (m Model) taskByID(id string) (domain.Task, bool) {
	for _, task := range m.tasks {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

// focusTaskByID selects the row holding id.
func (m *Model) focusTaskByID(id string) bool {
	for idx, task := range m.tasks {
		if task.ID == id {
			m.selected = idx
			return true
		}
	}
	return false
}

func (m Model) hasEdge(id string) bool {
	for _, dep := range m.deps {
		if dep.ID == id {
			return true
		}
	}
	return false
}

// replaceDates mirrors an applied frame into the loaded rows.
func (m *Model) replaceDates(id string, start, end time.Time) {
	for idx := range m.tasks {
		if m.tasks[idx].ID == id {
			m.tasks[idx].StartDate = start
			m.tasks[idx].EndDate = end
			return
		}
	}
}

// window is recomputed from the clock on every use.
func (m Model) window() timeline.Window {
	return timeline.NewWindow(m.now(), m.daysBefore, m.daysAfter)
}

func (m Model) gridWidth() int {
	return max(0, m.width-m.panelWidth-1)
}

func (m Model) totalCells() int {
	px := timeline.AxisWidthPx(m.window(), m.zoom)
	return (px + m.scale.CellPixels - 1) / m.scale.CellPixels
}

func (m Model) visibleRows() int {
	if m.height <= 0 {
		return max(1, len(m.tasks))
	}
	return max(1, (m.height-headerLines-footerLines)/2)
}

func (m Model) scrollStep() int {
	return max(1, m.gridWidth()/4)
}

// clampScroll keeps both scroll offsets inside the content.
func (m *Model) clampScroll() {
	m.scrollX = clamp(m.scrollX, 0, max(0, m.totalCells()-m.gridWidth()))
	m.scrollY = clamp(m.scrollY, 0, max(0, len(m.tasks)-m.visibleRows()))
}

// ensureRowVisible scrolls vertically so the selection is on screen.
func (m *Model) ensureRowVisible() {
	rows := m.visibleRows()
	if m.selected < m.scrollY {
		m.scrollY = m.selected
	}
	if m.selected >= m.scrollY+rows {
		m.scrollY = m.selected - rows + 1
	}
	m.clampScroll()
}

// jumpToToday places the anchor day a third of the way into the grid.
func (m *Model) jumpToToday() {
	w := m.window()
	anchor := m.scale.Cell(w.AnchorIndex() * m.zoom.PixelsPerDay())
	m.scrollX = anchor - m.gridWidth()/3
	m.clampScroll()
}

// setZoom changes the scale while keeping the leftmost visible day in place.
func (m *Model) setZoom(z domain.ZoomLevel) {
	leftDay := m.scale.Px(m.scrollX) / m.zoom.PixelsPerDay()
	m.zoom = z
	m.scrollX = m.scale.Cell(leftDay * z.PixelsPerDay())
	m.clampScroll()
}

// taskSummary is the clipboard text for one task.
func taskSummary(t domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s → %s", t.Name, t.Status, t.StartDate.Format(time.DateOnly), t.EndDate.Format(time.DateOnly))
	fmt.Fprintf(&b, " · %s priority · %d%%", t.Priority, t.Progress)
	if t.Assignee != "" {
		fmt.Fprintf(&b, " · @%s", t.Assignee)
	}
	if len(t.Dependencies) > 0 {
		fmt.Fprintf(&b, " · after %s", strings.Join(t.Dependencies, ", "))
	}
	return b.String()
}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
