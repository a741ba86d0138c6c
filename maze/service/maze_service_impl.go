package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/render"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
)

// DefaultSceneID names the catalog's fallback scene
const DefaultSceneID = "default"

// mazeServiceImpl implements the MazeService interface
type mazeServiceImpl struct {
	runs   RunManager
	scenes SceneCatalog
	mu     sync.RWMutex
}

// NewMazeService creates a new maze service instance
func NewMazeService(runs RunManager, scenes SceneCatalog) MazeService {
	return &mazeServiceImpl{
		runs:   runs,
		scenes: scenes,
	}
}

// ListScenes returns every loadable scene in the catalog
func (s *mazeServiceImpl) ListScenes(ctx context.Context) ([]*SceneInfo, error) {
	return s.scenes.ListScenes()
}

// GetScene loads a scene document by ID
func (s *mazeServiceImpl) GetScene(ctx context.Context, sceneID string) (*scene.Document, error) {
	doc, _, err := s.loadScene(sceneID)
	return doc, err
}

// SaveScene validates and stores a scene document
func (s *mazeServiceImpl) SaveScene(ctx context.Context, sceneID string, doc *scene.Document) error {
	if sceneID == "" {
		return fmt.Errorf("%w: scene id is required", ErrInvalidInput)
	}
	if doc == nil {
		return fmt.Errorf("%w: scene document is required", ErrInvalidInput)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	sc := doc.Scene()
	if err := engine.ValidateScene(&sc); err != nil {
		return err
	}
	return s.scenes.SaveScene(sceneID, doc)
}

// Solve rasterizes a catalog scene, searches it and stores the run
func (s *mazeServiceImpl) Solve(ctx context.Context, sceneID string, opts SolveOptions) (*RunInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind, err := engine.ParseHeuristic(opts.Heuristic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	doc, id, err := s.loadScene(sceneID)
	if err != nil {
		return nil, err
	}

	sc := doc.Scene()
	if err := engine.ValidateScene(&sc); err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}

	solved := engine.Solve(sc, engine.WithHeuristic(kind))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Let run manager generate a 4-character ID
	run, err := s.runs.Create("", id, solved)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return toRunInfo(run), nil
}

// GetRun retrieves run information
func (s *mazeServiceImpl) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}
	return toRunInfo(run), nil
}

// ListRuns returns all stored runs
func (s *mazeServiceImpl) ListRuns(ctx context.Context) ([]*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.runs.List()
	result := make([]*RunInfo, 0, len(runs))
	for _, run := range runs {
		result = append(result, toRunInfo(run))
	}
	return result, nil
}

// DeleteRun removes a run
func (s *mazeServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.runs.Delete(runID); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	return nil
}

// RenderRun draws a run as SVG or PNG
func (s *mazeServiceImpl) RenderRun(ctx context.Context, runID string, opts RenderOptions) (*Rendered, error) {
	format := opts.Format
	if format == "" {
		format = render.FormatSVG
	}
	format, err := render.ParseFormat(string(format))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}

	style := render.DefaultStyle()
	if opts.CellPixels > 0 {
		style.CellPixels = opts.CellPixels
	}

	var buf bytes.Buffer
	if err := render.Write(&buf, format, run.Solution, style); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return &Rendered{
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// DescribeCell reports what a run knows about one cell
func (s *mazeServiceImpl) DescribeCell(ctx context.Context, runID string, x, y int) (*engine.CellInfo, error) {
	run, err := s.getRun(runID)
	if err != nil {
		return nil, err
	}

	info := run.Solution.Describe(engine.Cell{X: x, Y: y})
	return &info, nil
}

func (s *mazeServiceImpl) getRun(runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	touched, err := s.runs.UpdateLastAccessed(runID)
	if err != nil {
		log.Printf("Warning: Failed to update last access for run %s: %v", runID, err)
		return run, nil
	}
	return touched, nil
}

// loadScene resolves an ID to a document; the empty ID selects the default
func (s *mazeServiceImpl) loadScene(sceneID string) (*scene.Document, string, error) {
	if sceneID == "" || sceneID == DefaultSceneID {
		if doc := s.scenes.GetDefault(); doc != nil {
			return doc, DefaultSceneID, nil
		}
	}

	doc, err := s.scenes.LoadScene(sceneID)
	if err == nil {
		return doc, sceneID, nil
	}

	// Provide helpful error message with available options
	if errors.Is(err, ErrSceneNotFound) {
		available, listErr := s.scenes.ListScenes()
		if listErr == nil && len(available) > 0 {
			ids := make([]string, 0, len(available))
			for _, info := range available {
				ids = append(ids, info.SceneID)
			}
			return nil, "", fmt.Errorf("%w: '%s'. Available scenes: %v", ErrSceneNotFound, sceneID, ids)
		}
		return nil, "", fmt.Errorf("%w: '%s'. Use /api/scenes to list available scenes", ErrSceneNotFound, sceneID)
	}
	return nil, "", fmt.Errorf("failed to load scene %s: %w", sceneID, err)
}

func toRunInfo(run *Run) *RunInfo {
	solved := run.Solution
	solved.Regrid()
	grid := solved.Grid

	return &RunInfo{
		ID:             run.ID,
		SceneID:        run.SceneID,
		Heuristic:      string(solved.Heuristic),
		CreatedAt:      run.CreatedAt,
		LastAccessedAt: run.LastAccessedAt,
		Found:          solved.Result.Found,
		Cost:           solved.Result.Cost,
		Expanded:       solved.Result.Expanded,
		Path:           solved.Result.Path,
		Moves:          solved.Directions(),
		Grid: GridInfo{
			Width:        grid.Width,
			Height:       grid.Height,
			Start:        grid.Start,
			End:          grid.End,
			BlockedCells: engine.CountBlockedInBounds(grid),
			FreeCells:    engine.CountFreeCells(grid),
		},
	}
}
