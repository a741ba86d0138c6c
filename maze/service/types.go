package service

import (
	"time"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/render"
)

// SceneInfo provides information about a catalog scene
type SceneInfo struct {
	Filename    string  `json:"filename"`
	SceneID     string  `json:"scene_id"` // The identifier to use for solving
	Name        string  `json:"name"`     // Display name
	Description string  `json:"description"`
	Format      string  `json:"format"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Obstacles   int     `json:"obstacles"`
}

// SolveOptions configures a solve request
type SolveOptions struct {
	Heuristic string `json:"heuristic,omitempty"` // "manhattan" (default) or "signed"
}

// GridInfo summarizes the rasterized grid of a run
type GridInfo struct {
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Start        engine.Cell `json:"start"`
	End          engine.Cell `json:"end"`
	BlockedCells int         `json:"blocked_cells"`
	FreeCells    int         `json:"free_cells"`
}

// RunInfo provides information about a solve run
type RunInfo struct {
	ID             string             `json:"id"`
	SceneID        string             `json:"scene_id"`
	Heuristic      string             `json:"heuristic"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Found          bool               `json:"found"`
	Cost           int                `json:"cost"`
	Expanded       int                `json:"expanded"`
	Path           []engine.Cell      `json:"path"`
	Moves          []engine.Direction `json:"moves"`
	Grid           GridInfo           `json:"grid"`
}

// RenderOptions configures image output for a run
type RenderOptions struct {
	Format     render.Format `json:"format"`
	CellPixels float64       `json:"cell_pixels,omitempty"` // PNG only
}

// Rendered is an encoded image of a run
type Rendered struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
