package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
)

var (
	ErrSceneNotFound = errors.New("scene not found")
	ErrRunNotFound   = errors.New("run not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// MazeService defines all maze-related operations
type MazeService interface {
	// Scene catalog
	ListScenes(ctx context.Context) ([]*SceneInfo, error)
	GetScene(ctx context.Context, sceneID string) (*scene.Document, error)
	SaveScene(ctx context.Context, sceneID string, doc *scene.Document) error

	// Solving
	Solve(ctx context.Context, sceneID string, opts SolveOptions) (*RunInfo, error)

	// Runs
	GetRun(ctx context.Context, runID string) (*RunInfo, error)
	ListRuns(ctx context.Context) ([]*RunInfo, error)
	DeleteRun(ctx context.Context, runID string) error
	RenderRun(ctx context.Context, runID string, opts RenderOptions) (*Rendered, error)
	DescribeCell(ctx context.Context, runID string, x, y int) (*engine.CellInfo, error)
}

// RunManager defines run storage operations
type RunManager interface {
	Create(id, sceneID string, solved *engine.SolvedGrid) (*Run, error)
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
	UpdateLastAccessed(id string) (*Run, error)
}

// SceneCatalog handles scene loading and storage
type SceneCatalog interface {
	LoadScene(id string) (*scene.Document, error)
	ListScenes() ([]*SceneInfo, error)
	GetDefault() *scene.Document
	SaveScene(id string, doc *scene.Document) error
}

// Run is one solve of one scene
type Run struct {
	ID             string
	SceneID        string
	Solution       *engine.SolvedGrid
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
