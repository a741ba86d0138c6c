package engine

import "fmt"

// Point is a location in scene coordinates
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Sub returns p translated by -o
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Size is a real-valued width and height
type Size struct {
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// Rect is an axis-aligned rectangle in scene coordinates
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Translate returns r moved by -o
func (r Rect) Translate(o Point) Rect {
	return Rect{X: r.X - o.X, Y: r.Y - o.Y, Width: r.Width, Height: r.Height}
}

// Scene is the continuous description handed to the rasterizer.
// Origin is the top-left of the background region; every other coordinate
// is absolute and gets the origin subtracted during rasterization.
type Scene struct {
	Origin    Point  `json:"origin"`
	Size      Size   `json:"size"`
	Start     Point  `json:"start"`
	End       Point  `json:"end"`
	Obstacles []Rect `json:"obstacles"`
}

// Cell identifies one unit square of the grid
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the cell as "(x,y)"
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid is the rasterized form of a Scene. It is never mutated after
// Rasterize returns it.
type Grid struct {
	Width   int
	Height  int
	Blocked map[Cell]struct{}
	Start   Cell
	End     Cell
}

// InBounds reports whether c lies inside [0,Width)x[0,Height)
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// IsBlocked reports whether c is covered by an obstacle
func (g *Grid) IsBlocked(c Cell) bool {
	_, ok := g.Blocked[c]
	return ok
}

// Passable reports whether the search may step onto c
func (g *Grid) Passable(c Cell) bool {
	return g.InBounds(c) && !g.IsBlocked(c)
}

// BlockedCells returns the blocked set in row-major order
func (g *Grid) BlockedCells() []Cell {
	cells := make([]Cell, 0, len(g.Blocked))
	for c := range g.Blocked {
		cells = append(cells, c)
	}
	SortCells(cells)
	return cells
}

// Result is the outcome of a path search. A search that finds nothing is
// not an error: Found is false and Path is empty.
type Result struct {
	Path     []Cell `json:"path"`
	Found    bool   `json:"found"`
	Cost     int    `json:"cost"`
	Expanded int    `json:"expanded"`
}

// SolvedGrid bundles a scene with its grid and search result
type SolvedGrid struct {
	Scene     Scene         `json:"scene"`
	Grid      *Grid         `json:"-"`
	Result    Result        `json:"result"`
	Heuristic HeuristicKind `json:"heuristic"`
}

// CellInfo describes a single grid cell relative to a solved grid
type CellInfo struct {
	Cell     Cell `json:"cell"`
	InBounds bool `json:"in_bounds"`
	Blocked  bool `json:"blocked"`
	OnPath   bool `json:"on_path"`
	PathStep int  `json:"path_step"` // -1 when not on the path
	IsStart  bool `json:"is_start"`
	IsEnd    bool `json:"is_end"`
}
