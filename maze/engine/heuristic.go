package engine

import (
	"fmt"
	"strings"
)

// HeuristicKind names a distance estimate used to order the open set
type HeuristicKind string

const (
	// Manhattan is |dx|+|dy|. Admissible and consistent on a 4-way unit grid.
	Manhattan HeuristicKind = "manhattan"
	// Signed is dx+dy without absolute values. It can go negative and is
	// not consistent; selectable for comparison with Manhattan.
	Signed HeuristicKind = "signed"
)

// Heuristic estimates the remaining cost from a to b
type Heuristic func(a, b Cell) int

// Func returns the estimate for k, defaulting to Manhattan
func (k HeuristicKind) Func() Heuristic {
	if k == Signed {
		return SignedDistance
	}
	return ManhattanDistance
}

// ParseHeuristic maps a user-supplied name to a HeuristicKind.
// The empty string selects Manhattan.
func ParseHeuristic(name string) (HeuristicKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(Manhattan):
		return Manhattan, nil
	case string(Signed):
		return Signed, nil
	default:
		return "", fmt.Errorf("unknown heuristic %q (want %q or %q)", name, Manhattan, Signed)
	}
}

// ManhattanDistance is the 4-directional grid distance between two cells
func ManhattanDistance(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// SignedDistance is (a.x-b.x)+(a.y-b.y)
func SignedDistance(a, b Cell) int {
	return (a.X - b.X) + (a.Y - b.Y)
}
