package engine

import "sort"

// SortCells orders cells row-major: by Y, then X
func SortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
}

// CountBlockedInBounds counts blocked cells that fall inside the grid.
// Obstacles reaching past the background still rasterize; those cells are
// excluded here.
func CountBlockedInBounds(g *Grid) int {
	count := 0
	for c := range g.Blocked {
		if g.InBounds(c) {
			count++
		}
	}
	return count
}

// CountFreeCells counts in-bounds cells the search may step on
func CountFreeCells(g *Grid) int {
	return g.Width*g.Height - CountBlockedInBounds(g)
}

// ReachableCells flood-fills from the start cell and returns every passable
// cell connected to it. The start itself is included when it is in bounds.
func ReachableCells(g *Grid) map[Cell]bool {
	visited := make(map[Cell]bool)
	if !g.InBounds(g.Start) {
		return visited
	}

	queue := []Cell{g.Start}
	visited[g.Start] = true
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range directions {
			next := Cell{X: current.X + d.X, Y: current.Y + d.Y}
			if visited[next] || !g.Passable(next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return visited
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
