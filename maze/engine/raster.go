package engine

import "math"

// Rasterize converts a scene into a grid.
//
// Obstacles round outward: a rectangle that only partly covers a cell blocks
// the whole cell, so x=1.5,w=2 blocks columns 1, 2 and 3. Start and end
// round to the nearest cell, halves away from zero. Any input produces a
// grid; out-of-bounds start or end cells are kept as-is.
func Rasterize(scene Scene) *Grid {
	blocked := make(map[Cell]struct{})

	for _, obstacle := range scene.Obstacles {
		r := obstacle.Translate(scene.Origin)
		minX := int(math.Floor(r.X))
		minY := int(math.Floor(r.Y))
		maxX := int(math.Ceil(r.X + r.Width))
		maxY := int(math.Ceil(r.Y + r.Height))

		for y := minY; y < maxY; y++ {
			for x := minX; x < maxX; x++ {
				blocked[Cell{X: x, Y: y}] = struct{}{}
			}
		}
	}

	return &Grid{
		Width:   int(math.Ceil(scene.Size.W)),
		Height:  int(math.Ceil(scene.Size.H)),
		Blocked: blocked,
		Start:   roundCell(scene.Start.Sub(scene.Origin)),
		End:     roundCell(scene.End.Sub(scene.Origin)),
	}
}

func roundCell(p Point) Cell {
	return Cell{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}
