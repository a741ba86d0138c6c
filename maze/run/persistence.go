package run

import (
	"sort"
	"time"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
)

// RunPersistence defines the interface for persisting runs
type RunPersistence interface {
	// Save persists a run to storage
	Save(run *service.Run) error

	// Load retrieves a run from storage by ID
	Load(id string) (*service.Run, error)

	// Delete removes a run from storage
	Delete(id string) error

	// ListAll returns all persisted run IDs
	ListAll() ([]string, error)

	// Exists checks if a run exists in storage
	Exists(id string) bool
}

// PersistedRunData is the JSON structure for persisted runs. The scene is
// stored inline so a run stays reproducible after its catalog file changes;
// the grid is rebuilt on load.
type PersistedRunData struct {
	ID             string               `json:"id"`
	SceneID        string               `json:"scene_id"`
	Heuristic      engine.HeuristicKind `json:"heuristic"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	Scene          engine.Scene         `json:"scene"`
	Result         engine.Result        `json:"result"`
}

func sortNewestFirst(runs []*service.Run) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
