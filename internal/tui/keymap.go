package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the normal-mode bindings.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	reload      key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	scrollLeft  key.Binding
	scrollRight key.Binding
	addTask     key.Binding
	editTask    key.Binding
	deleteTask  key.Binding
	zoom        key.Binding
	today       key.Binding
	search      key.Binding
	filter      key.Binding
	sort        key.Binding
	shiftEarly  key.Binding
	shiftLate   key.Binding
	copyTask    key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		scrollLeft:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "scroll earlier")),
		scrollRight: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "scroll later")),
		addTask:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit task")),
		deleteTask:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		zoom:        key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "cycle zoom")),
		today:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "jump to today")),
		search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		filter:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "status filter")),
		sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		shiftEarly:  key.NewBinding(key.WithKeys("<", "shift+,"), key.WithHelp("<", "shift task -1d")),
		shiftLate:   key.NewBinding(key.WithKeys(">", "shift+."), key.WithHelp(">", "shift task +1d")),
		copyTask:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.editTask, k.deleteTask, k.zoom, k.today, k.search, k.toggleHelp, k.quit,
	}
}

// FullHelp returns every binding grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.editTask, k.deleteTask, k.copyTask, k.shiftEarly, k.shiftLate},
		{k.moveUp, k.moveDown, k.scrollLeft, k.scrollRight, k.today, k.zoom},
		{k.search, k.filter, k.sort, k.reload, k.toggleHelp, k.quit},
	}
}
