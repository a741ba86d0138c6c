package engine

import (
	"errors"
	"fmt"
	"math"
)

const (
	// Validation limits
	MaxGridDimension = 4096
	MaxObstacles     = 10000
	// MaxBlockedCells bounds the cells all obstacles rasterize to, counted
	// per obstacle, inside the background or not
	MaxBlockedCells = 1 << 20
	// MaxCoordinate bounds obstacle extents relative to the origin
	MaxCoordinate = 1 << 30
)

// ErrInvalidScene wraps every ValidateScene failure
var ErrInvalidScene = errors.New("invalid scene")

// ValidateScene checks that a scene is safe to rasterize: finite
// coordinates, non-negative sizes and grid extents within MaxGridDimension.
// Rasterize itself accepts anything; loaders call this before handing a
// scene to the solver.
func ValidateScene(scene *Scene) error {
	if scene == nil {
		return fmt.Errorf("%w: scene is nil", ErrInvalidScene)
	}

	points := []struct {
		name string
		p    Point
	}{
		{"origin", scene.Origin},
		{"start", scene.Start},
		{"end", scene.End},
	}
	for _, pt := range points {
		if !finite(pt.p.X) || !finite(pt.p.Y) {
			return fmt.Errorf("%w: %s has non-finite coordinates", ErrInvalidScene, pt.name)
		}
	}

	if !finite(scene.Size.W) || !finite(scene.Size.H) {
		return fmt.Errorf("%w: size has non-finite components", ErrInvalidScene)
	}
	if scene.Size.W < 0 || scene.Size.H < 0 {
		return fmt.Errorf("%w: size must be non-negative, got %gx%g", ErrInvalidScene, scene.Size.W, scene.Size.H)
	}
	if math.Ceil(scene.Size.W) > MaxGridDimension || math.Ceil(scene.Size.H) > MaxGridDimension {
		return fmt.Errorf("%w: grid must be at most %dx%d cells, got %gx%g",
			ErrInvalidScene, MaxGridDimension, MaxGridDimension, scene.Size.W, scene.Size.H)
	}

	if len(scene.Obstacles) > MaxObstacles {
		return fmt.Errorf("%w: at most %d obstacles allowed, got %d", ErrInvalidScene, MaxObstacles, len(scene.Obstacles))
	}
	cells := 0.0
	for i, r := range scene.Obstacles {
		if !finite(r.X) || !finite(r.Y) || !finite(r.Width) || !finite(r.Height) {
			return fmt.Errorf("%w: obstacle %d has non-finite geometry", ErrInvalidScene, i)
		}
		if r.Width < 0 || r.Height < 0 {
			return fmt.Errorf("%w: obstacle %d has negative size %gx%g", ErrInvalidScene, i, r.Width, r.Height)
		}
		if r.Width > MaxGridDimension || r.Height > MaxGridDimension {
			return fmt.Errorf("%w: obstacle %d spans more than %d cells", ErrInvalidScene, i, MaxGridDimension)
		}

		local := r.Translate(scene.Origin)
		if math.Abs(local.X) > MaxCoordinate || math.Abs(local.Y) > MaxCoordinate {
			return fmt.Errorf("%w: obstacle %d lies more than %d units from the origin", ErrInvalidScene, i, MaxCoordinate)
		}
		cells += coveredCells(local)
		if cells > MaxBlockedCells {
			return fmt.Errorf("%w: obstacles cover more than %d cells", ErrInvalidScene, MaxBlockedCells)
		}
	}

	return nil
}

// DefaultScene returns a small built-in scene used when no catalog entry
// is available: a 20x12 field with two walls forming a detour.
func DefaultScene() *Scene {
	return &Scene{
		Origin: Point{X: 0, Y: 0},
		Size:   Size{W: 20, H: 12},
		Start:  Point{X: 1.2, Y: 1.4},
		End:    Point{X: 18.6, Y: 10.3},
		Obstacles: []Rect{
			{X: 5, Y: 0, Width: 1.5, Height: 9},
			{X: 12.5, Y: 3, Width: 1, Height: 9},
		},
	}
}

// coveredCells is the number of cells Rasterize blocks for an obstacle
// already translated to grid coordinates
func coveredCells(r Rect) float64 {
	w := math.Ceil(r.X+r.Width) - math.Floor(r.X)
	h := math.Ceil(r.Y+r.Height) - math.Floor(r.Y)
	return w * h
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
