package engine

import "container/heap"

// SearchOptions defines parameters for FindPath
type SearchOptions struct {
	Heuristic HeuristicKind
}

// SearchOption modifies SearchOptions
type SearchOption func(*SearchOptions)

// WithHeuristic selects the distance estimate used to order the open set
func WithHeuristic(kind HeuristicKind) SearchOption {
	return func(o *SearchOptions) { o.Heuristic = kind }
}

// searchNode is the canonical record for a discovered cell
type searchNode struct {
	g    int
	from Cell
}

// directions lists neighbor offsets in expansion order: left, right, up, down
var directions = [4]Cell{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}}

// FindPath runs A* from grid.Start to grid.End over 4-connected passable
// cells with unit step cost. The returned path includes both endpoints.
//
// The open set uses lazy deletion: an improved cell is pushed again and the
// older entry is skipped when it surfaces. A start or end outside the grid
// never yields a path unless the two are the same cell.
func FindPath(grid *Grid, options ...SearchOption) Result {
	opts := SearchOptions{Heuristic: Manhattan}
	for _, option := range options {
		option(&opts)
	}
	h := opts.Heuristic.Func()

	start, goal := grid.Start, grid.End
	if start == goal {
		return Result{Path: []Cell{start}, Found: true}
	}
	if !grid.InBounds(start) || !grid.InBounds(goal) {
		return Result{Path: []Cell{}}
	}

	nodes := map[Cell]*searchNode{start: {g: 0, from: start}}
	open := make(openSet, 0, 64)
	heap.Init(&open)
	heap.Push(&open, &openItem{cell: start, g: 0, f: h(start, goal)})

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(&open).(*openItem)
		if current.g > nodes[current.cell].g {
			continue
		}

		if current.cell == goal {
			path := reconstructPath(nodes, start, goal)
			return Result{Path: path, Found: true, Cost: current.g, Expanded: expanded}
		}
		expanded++

		for _, d := range directions {
			next := Cell{X: current.cell.X + d.X, Y: current.cell.Y + d.Y}
			if !grid.Passable(next) {
				continue
			}

			tentative := current.g + 1
			node, seen := nodes[next]
			if seen && tentative >= node.g {
				continue
			}
			if !seen {
				node = &searchNode{}
				nodes[next] = node
			}
			node.g = tentative
			node.from = current.cell
			heap.Push(&open, &openItem{cell: next, g: tentative, f: tentative + h(next, goal)})
		}
	}

	return Result{Path: []Cell{}, Expanded: expanded}
}

// reconstructPath walks predecessor links from goal back to start and
// returns the cells in start->goal order.
func reconstructPath(nodes map[Cell]*searchNode, start, goal Cell) []Cell {
	path := []Cell{goal}
	current := goal
	for current != start && len(path) <= len(nodes) {
		current = nodes[current].from
		path = append(path, current)
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
