package tui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/gantt/internal/domain"
	"github.com/evanschultz/gantt/internal/gesture"
)

// View renders the model.
func (m Model) View() tea.View {
	if !m.ready {
		return newView("loading...")
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	sc := m.scene()
	cols := m.gridWidth()
	rows := m.visibleRows()

	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderHeader(accent, muted, dim))

	divider := lipgloss.NewStyle().Foreground(dim).Render("│")
	if state, ok := m.tracker.Active(); ok && state.Mode == gesture.ModeColumnResize {
		divider = lipgloss.NewStyle().Foreground(accent).Bold(true).Render("┃")
	}
	monthRow, tickRow := m.axisRows(sc, m.scrollX, cols)
	panelTitle := lipgloss.NewStyle().Bold(true).Foreground(muted).Render(fmt.Sprintf("tasks (%d)", len(m.tasks)))
	lines = append(lines,
		padRight(panelTitle, m.panelWidth)+divider+lipgloss.NewStyle().Foreground(muted).Render(monthRow),
		strings.Repeat(" ", m.panelWidth)+divider+statusStyle.Render(tickRow),
	)

	c := newCanvas(m.scrollX, 2*m.scrollY, cols, 2*rows)
	m.drawGrid(sc, c)
	styles := newGridStyles(accent, muted, dim)
	panel := m.renderPanel(rows, accent, muted)
	for i := 0; i < 2*rows; i++ {
		lines = append(lines, panel[i]+divider+c.render(i, styles))
	}

	body := strings.Join(lines, "\n")
	if m.height > 0 {
		body = fitLines(body, max(0, m.height-footerLines))
	}

	statusLine := statusStyle.Render(truncate(m.status, max(1, m.width-1)))
	if m.hoverEdge != "" {
		statusLine += statusStyle.Render("  │ edge " + m.hoverEdge)
	}
	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	full := body + "\n" + statusLine + "\n" + helpLine
	if overlay, right := m.renderOverlay(accent, muted, dim); overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height), right)
	}
	return newView(full)
}

func newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeAllMotion
	v.AltScreen = true
	return v
}

// renderHeader renders the title line.
func (m Model) renderHeader(accent, muted, dim color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	w := m.window()

	header := titleStyle.Render("gantt")
	header += statusStyle.Render(fmt.Sprintf("  %s → %s", w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly)))
	header += lipgloss.NewStyle().Foreground(accent).Render("  zoom: " + string(m.zoom))
	header += statusStyle.Render("  filter: " + m.listOpts.Status + "  sort: " + string(m.listOpts.Sort))
	switch {
	case m.mode == modeSearch:
		header += "  " + m.searchInput.View()
	case m.listOpts.Search != "":
		header += lipgloss.NewStyle().Foreground(muted).Render("  search: " + m.listOpts.Search)
	}
	return truncateStyled(header, m.width)
}

// renderPanel renders two lines per visible row for the side panel.
func (m Model) renderPanel(rows int, accent, muted color.Color) []string {
	out := make([]string, 0, 2*rows)
	blank := strings.Repeat(" ", m.panelWidth)
	nameWidth := max(1, m.panelWidth-4)
	selStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)
	if len(m.tasks) == 0 {
		empty := []string{
			subStyle.Render(truncate("No tasks.", m.panelWidth)),
			subStyle.Render(truncate("Press n to add one.", m.panelWidth)),
		}
		for i := 0; i < 2*rows; i++ {
			if i < len(empty) {
				out = append(out, padRight(empty[i], m.panelWidth))
				continue
			}
			out = append(out, blank)
		}
		return out
	}
	for r := 0; r < rows; r++ {
		idx := m.scrollY + r
		if idx >= len(m.tasks) {
			out = append(out, blank, blank)
			continue
		}
		task := m.tasks[idx]
		prefix := "  "
		name := truncate(task.Name, nameWidth)
		if idx == m.selected {
			prefix = selStyle.Render("› ")
			name = selStyle.Render(name)
		}
		swatch := lipgloss.NewStyle().Foreground(statusColor(task.Status)).Render("●")
		first := prefix + swatch + " " + name
		if task.Priority == domain.PriorityHigh {
			first += lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(" !")
		}
		second := fmt.Sprintf("%s→%s %d%%", task.StartDate.Format("01-02"), task.EndDate.Format("01-02"), task.Progress)
		if task.Assignee != "" {
			second += " @" + task.Assignee
		}
		out = append(out,
			padRight(truncateStyled(first, m.panelWidth), m.panelWidth),
			padRight("    "+subStyle.Render(truncate(second, max(1, m.panelWidth-4))), m.panelWidth),
		)
	}
	return out
}

// renderOverlay returns the active modal and whether it docks to the right edge.
func (m Model) renderOverlay(accent, muted, dim color.Color) (string, bool) {
	if m.help.ShowAll {
		return m.renderHelpOverlay(accent, muted, dim), false
	}
	switch m.mode {
	case modeCreateTask, modeEditTask:
		return m.renderDrawer(accent, muted), true
	case modeConfirmDelete:
		name := m.deleteTaskID
		if task, ok := m.taskByID(m.deleteTaskID); ok {
			name = task.Name
		}
		lines := []string{
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")).Render("Delete task?"),
			truncate(name, 40),
			lipgloss.NewStyle().Foreground(muted).Render("dependencies on it are removed too"),
			"",
			lipgloss.NewStyle().Foreground(muted).Render("y/enter delete • n/esc cancel"),
		}
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(0, 1).
			Render(strings.Join(lines, "\n")), false
	}
	return "", false
}

// renderHelpOverlay renders the full key reference.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color) string {
	width := clamp(m.width-8, 40, 90)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)
	mouse := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Mouse"),
		"drag a bar to move it • drag ▐ ▌ handles to resize",
		"drag from ● to another bar to add a dependency",
		"click ◆ on an arrow to remove it • drag │ to resize the panel",
		"wheel scrolls rows • horizontal wheel scrolls days",
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Help"),
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(mouse, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderDrawer renders the create/edit form.
func (m Model) renderDrawer(accent, muted color.Color) string {
	width := clamp(m.width/2, 36, 64)
	inner := width - 4
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	focusStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	title := "New Task"
	if m.mode == modeEditTask {
		title = "Edit Task"
	}
	lines := []string{titleStyle.Render(title), ""}
	for idx, in := range m.form.inputs {
		label := fmt.Sprintf("%-11s", formLabels[idx])
		if idx == m.form.focus {
			label = focusStyle.Render(label)
		} else {
			label = labelStyle.Render(label)
		}
		in.SetWidth(max(8, inner-12))
		lines = append(lines, label+" "+in.View())
		if key := formErrorKeys[idx]; key != "" {
			if msg, ok := m.form.errs[key]; ok {
				lines = append(lines, errStyle.Render("            "+truncate(msg, max(1, inner-12))))
			}
		}
	}
	if len(m.form.chain) > 0 {
		names := make([]string, 0, len(m.form.chain))
		for _, task := range m.form.chain {
			names = append(names, task.Name)
		}
		lines = append(lines, "", labelStyle.Render(truncate("waits on: "+strings.Join(names, " → "), inner)))
	}
	if preview := m.markdown.render(m.form.value(formDescription), inner, 8); preview != "" {
		lines = append(lines, "", preview)
	}
	lines = append(lines, "", labelStyle.Render("tab next • enter save • esc cancel"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent composes overlay over base, centered or docked right.
func overlayOnContent(base, overlay string, width, height int, right bool) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	ow, oh := lipgloss.Width(overlay), lipgloss.Height(overlay)
	x := max(0, (width-ow)/2)
	y := max(0, (height-oh)/2)
	if right {
		x = max(0, width-ow)
		y = min(headerLines, max(0, height-oh))
	}
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	canvas.Compose(lipgloss.NewLayer(overlay).X(x).Y(y).Z(10))
	return canvas.Render()
}

// truncate cuts plain text to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

// truncateStyled cuts styled text to width cells.
func truncateStyled(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// padRight pads styled text with spaces to width cells.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
