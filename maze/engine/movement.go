package engine

import "fmt"

// Direction names a single 4-way step
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Step returns the neighbor of c in direction d
func Step(c Cell, d Direction) (Cell, bool) {
	switch d {
	case Left:
		return Cell{X: c.X - 1, Y: c.Y}, true
	case Right:
		return Cell{X: c.X + 1, Y: c.Y}, true
	case Up:
		return Cell{X: c.X, Y: c.Y - 1}, true
	case Down:
		return Cell{X: c.X, Y: c.Y + 1}, true
	default:
		return c, false
	}
}

// PathDirections converts a cell path into the moves that walk it.
// Non-adjacent consecutive cells return an error.
func PathDirections(path []Cell) ([]Direction, error) {
	if len(path) < 2 {
		return []Direction{}, nil
	}

	moves := make([]Direction, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		from, to := path[i-1], path[i]
		dx, dy := to.X-from.X, to.Y-from.Y
		switch {
		case dx == -1 && dy == 0:
			moves = append(moves, Left)
		case dx == 1 && dy == 0:
			moves = append(moves, Right)
		case dx == 0 && dy == -1:
			moves = append(moves, Up)
		case dx == 0 && dy == 1:
			moves = append(moves, Down)
		default:
			return nil, fmt.Errorf("cells %s and %s at step %d are not adjacent", from, to, i)
		}
	}
	return moves, nil
}

// ValidatePath checks that path starts at grid.Start, ends at grid.End and
// only steps between adjacent passable cells.
func ValidatePath(g *Grid, path []Cell) error {
	if len(path) == 0 {
		return fmt.Errorf("path is empty")
	}
	if path[0] != g.Start {
		return fmt.Errorf("path starts at %s, want %s", path[0], g.Start)
	}
	if last := path[len(path)-1]; last != g.End {
		return fmt.Errorf("path ends at %s, want %s", last, g.End)
	}
	if _, err := PathDirections(path); err != nil {
		return err
	}
	for i, c := range path[1:] {
		if !g.Passable(c) {
			return fmt.Errorf("path step %d enters impassable cell %s", i+1, c)
		}
	}
	return nil
}
