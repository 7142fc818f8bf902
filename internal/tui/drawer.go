package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/gantt/internal/domain"
)

// drawer form field indexes in display order.
const (
	formName = iota
	formStatus
	formPriority
	formAssignee
	formStart
	formEnd
	formProgress
	formDependsOn
	formDescription
	formFieldCount
)

// fieldDependencies keys dependency parse errors alongside domain fields.
const fieldDependencies = "dependencies"

// formLabels names each drawer field.
var formLabels = [formFieldCount]string{
	"name", "status", "priority", "assignee", "start", "end", "progress", "depends on", "description",
}

// formErrorKeys maps drawer fields to the validation keys they display.
var formErrorKeys = [formFieldCount]string{
	formName:      domain.FieldName,
	formStatus:    domain.FieldStatus,
	formPriority:  domain.FieldPriority,
	formStart:     domain.FieldStartDate,
	formEnd:       domain.FieldEndDate,
	formProgress:  domain.FieldProgress,
	formDependsOn: fieldDependencies,
}

// taskForm is the drawer's transient edit state.
type taskForm struct {
	taskID string
	inputs []textinput.Model
	focus  int
	errs   domain.FieldErrors
	chain  []domain.Task
}

// startTaskForm opens the drawer, seeded from task when editing.
func (m *Model) startTaskForm(task *domain.Task) tea.Cmd {
	today := domain.Day(m.now())
	values := [formFieldCount]string{
		formStatus:   string(domain.StatusTodo),
		formPriority: string(domain.PriorityMedium),
		formStart:    today.Format(time.DateOnly),
		formEnd:      domain.AddDays(today, 7).Format(time.DateOnly),
		formProgress: "0",
	}
	m.form = taskForm{}
	m.mode = modeCreateTask
	m.status = "new task"
	if task != nil {
		values = [formFieldCount]string{
			formName:        task.Name,
			formStatus:      string(task.Status),
			formPriority:    string(task.Priority),
			formAssignee:    task.Assignee,
			formStart:       task.StartDate.Format(time.DateOnly),
			formEnd:         task.EndDate.Format(time.DateOnly),
			formProgress:    strconv.Itoa(task.Progress),
			formDependsOn:   strings.Join(task.Dependencies, ", "),
			formDescription: task.Description,
		}
		m.form.taskID = task.ID
		m.mode = modeEditTask
		m.status = "edit " + task.Name
		if chain, err := m.svc.DependencyChain(task.ID); err == nil {
			m.form.chain = chain
		}
	}
	m.form.inputs = make([]textinput.Model, formFieldCount)
	for idx := range m.form.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		in.SetValue(values[idx])
		m.form.inputs[idx] = in
	}
	m.form.inputs[formStart].Placeholder = "YYYY-MM-DD"
	m.form.inputs[formEnd].Placeholder = "YYYY-MM-DD"
	m.form.inputs[formStatus].Placeholder = "todo | in-progress | completed | overdue"
	m.form.inputs[formPriority].Placeholder = "low | medium | high"
	m.form.inputs[formDependsOn].Placeholder = "comma-separated task ids"
	m.form.inputs[formDescription].CharLimit = 2000
	m.form.inputs[formDescription].Placeholder = "markdown"
	return m.focusFormField(formName)
}

// focusFormField moves focus to idx.
func (m *Model) focusFormField(idx int) tea.Cmd {
	if len(m.form.inputs) == 0 {
		return nil
	}
	idx = (idx + len(m.form.inputs)) % len(m.form.inputs)
	for i := range m.form.inputs {
		m.form.inputs[i].Blur()
	}
	m.form.focus = idx
	return m.form.inputs[idx].Focus()
}

// handleFormKey edits the drawer form.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.form = taskForm{}
		m.status = "edit canceled"
		return m, nil
	case "tab", "down":
		return m, m.focusFormField(m.form.focus + 1)
	case "shift+tab", "up":
		return m, m.focusFormField(m.form.focus - 1)
	case "enter", "ctrl+s":
		return m.submitTaskForm()
	}
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

// submitTaskForm validates the drawer and sends create or update.
func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	draft, errs := m.form.draft()
	if errs != nil {
		m.form.errs = errs
		m.status = fmt.Sprintf("fix %d field(s)", len(errs))
		return m, nil
	}
	m.form.errs = nil
	taskID := m.form.taskID
	svc := m.svc
	if taskID == "" {
		return m, func() tea.Msg {
			task, err := svc.CreateTask(context.Background(), draft)
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "created " + task.Name, reload: true, closeForm: true, focusTaskID: task.ID}
		}
	}
	return m, func() tea.Msg {
		task, err := svc.UpdateTask(context.Background(), taskID, draft)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "saved " + task.Name, reload: true, closeForm: true, focusTaskID: task.ID}
	}
}

// value returns the trimmed text of field idx.
func (f taskForm) value(idx int) string {
	if idx < 0 || idx >= len(f.inputs) {
		return ""
	}
	return strings.TrimSpace(f.inputs[idx].Value())
}

// draft parses the inputs. Parse problems and domain validation are reported
// together.
func (f taskForm) draft() (domain.Draft, domain.FieldErrors) {
	errs := domain.FieldErrors{}
	d := domain.Draft{
		Name:         f.value(formName),
		Status:       domain.Status(strings.ToLower(f.value(formStatus))),
		Priority:     domain.Priority(strings.ToLower(f.value(formPriority))),
		Assignee:     f.value(formAssignee),
		Dependencies: parseTaskIDs(f.value(formDependsOn)),
		Description:  f.value(formDescription),
	}
	if start, err := parseDateInput(f.value(formStart)); err != nil {
		errs[domain.FieldStartDate] = err.Error()
	} else {
		d.StartDate = start
	}
	if end, err := parseDateInput(f.value(formEnd)); err != nil {
		errs[domain.FieldEndDate] = err.Error()
	} else {
		d.EndDate = end
	}
	if raw := f.value(formProgress); raw != "" {
		progress, err := strconv.Atoi(strings.TrimSuffix(raw, "%"))
		if err != nil {
			errs[domain.FieldProgress] = "progress must be a whole number"
		}
		d.Progress = progress
	}
	if f.taskID != "" {
		for _, dep := range d.Dependencies {
			if dep == f.taskID {
				errs[fieldDependencies] = "a task cannot depend on itself"
			}
		}
	}
	for field, msg := range d.Validate() {
		if _, ok := errs[field]; !ok {
			errs[field] = msg
		}
	}
	if len(errs) == 0 {
		return d, nil
	}
	return d, errs
}

// parseDateInput parses YYYY-MM-DD. Empty input yields nil.
func parseDateInput(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("use YYYY-MM-DD")
	}
	return &ts, nil
}

// parseTaskIDs splits a comma or space separated id list.
func parseTaskIDs(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}
