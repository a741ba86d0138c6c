// Package engine provides the geometry-to-grid rasterizer and the A* path
// search for mazegrid.
//
// The engine package implements:
//   - Scene types in continuous coordinates (Point, Size, Rect, Scene)
//   - Outward-rounding rasterization of obstacles into a blocked cell set
//   - A* search with unit step cost over 4-connected cells
//   - Path helpers (move lists, validation, reachability flood fill)
//   - Scene validation limits applied by loaders
//
// Core Types:
//
// Rasterize turns a Scene into a Grid. FindPath searches a Grid and returns
// a Result; a Result with Found == false is the "no path" outcome and is not
// an error. Solve chains the two and returns a SolvedGrid.
//
// Usage:
//
//	scene := engine.Scene{
//		Size:      engine.Size{W: 10, H: 10},
//		Start:     engine.Point{X: 0, Y: 0},
//		End:       engine.Point{X: 9, Y: 9},
//		Obstacles: []engine.Rect{{X: 4, Y: 0, Width: 1, Height: 8}},
//	}
//
//	solved := engine.Solve(scene, engine.WithHeuristic(engine.Manhattan))
//	if !solved.Result.Found {
//		log.Println("no path")
//	}
//
// Heuristics:
//
// Manhattan (|dx|+|dy|) is the default. Signed (dx+dy) is the estimate
// older maze.svg tooling used. Signed never exceeds Manhattan, so
// it never overestimates, but it is not consistent: a cell can be improved
// after it was expanded. FindPath reopens such cells, so both heuristics
// return shortest paths; Signed may expand more cells to get there.
package engine
