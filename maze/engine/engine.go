package engine

// Solve rasterizes scene and searches the resulting grid
func Solve(scene Scene, options ...SearchOption) *SolvedGrid {
	opts := SearchOptions{Heuristic: Manhattan}
	for _, option := range options {
		option(&opts)
	}

	grid := Rasterize(scene)
	return &SolvedGrid{
		Scene:     scene,
		Grid:      grid,
		Result:    FindPath(grid, WithHeuristic(opts.Heuristic)),
		Heuristic: opts.Heuristic,
	}
}

// Regrid rebuilds the grid from the scene, used after the solved grid was
// restored from storage where only the scene and result are kept.
func (s *SolvedGrid) Regrid() {
	if s.Grid == nil {
		s.Grid = Rasterize(s.Scene)
	}
}

// PathIndex returns the position of c on the solution path, or -1
func (s *SolvedGrid) PathIndex(c Cell) int {
	for i, p := range s.Result.Path {
		if p == c {
			return i
		}
	}
	return -1
}

// Describe reports what the solved grid knows about a single cell
func (s *SolvedGrid) Describe(c Cell) CellInfo {
	s.Regrid()
	step := s.PathIndex(c)
	return CellInfo{
		Cell:     c,
		InBounds: s.Grid.InBounds(c),
		Blocked:  s.Grid.IsBlocked(c),
		OnPath:   step >= 0,
		PathStep: step,
		IsStart:  c == s.Grid.Start,
		IsEnd:    c == s.Grid.End,
	}
}

// Directions returns the solution as a move list. Unsolved grids yield an
// empty list.
func (s *SolvedGrid) Directions() []Direction {
	if !s.Result.Found {
		return []Direction{}
	}
	moves, err := PathDirections(s.Result.Path)
	if err != nil {
		return []Direction{}
	}
	return moves
}
