package domain

// prerequisiteGraph maps a task id to the ids it depends on.
func prerequisiteGraph(tasks []Task) map[string][]string {
	graph := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		graph[t.ID] = t.Dependencies
	}
	return graph
}

// WouldCycle reports whether adding the edge fromID -> toID closes a cycle,
// i.e. whether fromID already depends on toID directly or transitively.
func WouldCycle(tasks []Task, fromID, toID string) bool {
	if fromID == toID {
		return true
	}
	graph := prerequisiteGraph(tasks)
	visited := map[string]bool{}
	var reaches func(n string) bool
	reaches = func(n string) bool {
		if n == toID {
			return true
		}
		if visited[n] {
			return false
		}
		visited[n] = true
		for _, m := range graph[n] {
			if reaches(m) {
				return true
			}
		}
		return false
	}
	return reaches(fromID)
}

// Prerequisites lists every task id that id waits on, nearest first.
// Unknown ids in the chain are skipped.
func Prerequisites(tasks []Task, id string) []string {
	graph := prerequisiteGraph(tasks)
	visited := map[string]bool{id: true}
	out := make([]string, 0)
	queue := []string{id}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range graph[n] {
			if visited[m] {
				continue
			}
			visited[m] = true
			if _, ok := graph[m]; !ok {
				continue
			}
			out = append(out, m)
			queue = append(queue, m)
		}
	}
	return out
}

// FindCycles returns every dependency cycle in tasks as a closed id path.
// A well-formed collection returns none; imported snapshots are checked with it.
func FindCycles(tasks []Task) [][]string {
	graph := prerequisiteGraph(tasks)
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	var cycles [][]string

	var dfs func(n string)
	dfs = func(n string) {
		visited[n] = true
		onStack[n] = true
		stack = append(stack, n)
		for _, m := range graph[n] {
			if !visited[m] {
				dfs(m)
				continue
			}
			if onStack[m] {
				var cycle []string
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append([]string{stack[i]}, cycle...)
					if stack[i] == m {
						break
					}
				}
				cycles = append(cycles, append(cycle, m))
			}
		}
		stack = stack[:len(stack)-1]
		onStack[n] = false
	}

	for _, t := range tasks {
		if !visited[t.ID] {
			dfs(t.ID)
		}
	}
	return cycles
}
