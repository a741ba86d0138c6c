package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/render"
	"github.com/wricardo/mcp-training/mazegrid/maze/run"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
)

// MockRunManager implements service.RunManager for testing
type MockRunManager struct {
	runs      map[string]*service.Run
	updateErr error
}

func NewMockRunManager() *MockRunManager {
	return &MockRunManager{runs: make(map[string]*service.Run)}
}

func (m *MockRunManager) Create(id, sceneID string, solved *engine.SolvedGrid) (*service.Run, error) {
	if id == "" {
		id = fmt.Sprintf("r%03d", len(m.runs)+1)
	}
	if _, exists := m.runs[id]; exists {
		return nil, errors.New("run already exists")
	}
	run := &service.Run{
		ID:             id,
		SceneID:        sceneID,
		Solution:       solved,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.runs[id] = run
	return run, nil
}

func (m *MockRunManager) Get(id string) (*service.Run, error) {
	run, exists := m.runs[id]
	if !exists {
		return nil, service.ErrRunNotFound
	}
	return run, nil
}

func (m *MockRunManager) List() []*service.Run {
	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	return result
}

func (m *MockRunManager) Delete(id string) error {
	if _, exists := m.runs[id]; !exists {
		return service.ErrRunNotFound
	}
	delete(m.runs, id)
	return nil
}

func (m *MockRunManager) UpdateLastAccessed(id string) (*service.Run, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if run, exists := m.runs[id]; exists {
		run.LastAccessedAt = time.Now()
		cp := *run
		return &cp, nil
	}
	return nil, service.ErrRunNotFound
}

// MockSceneCatalog implements service.SceneCatalog for testing
type MockSceneCatalog struct {
	scenes map[string]*scene.Document
	saved  map[string]*scene.Document
}

func NewMockSceneCatalog() *MockSceneCatalog {
	walled := scene.NewDocument("Walled", "no way through", engine.Scene{
		Size:      engine.Size{W: 6, H: 3},
		Start:     engine.Point{X: 0, Y: 1},
		End:       engine.Point{X: 5, Y: 1},
		Obstacles: []engine.Rect{{X: 3, Y: 0, Width: 1, Height: 3}},
	})
	open := scene.NewDocument("Open", "empty field", engine.Scene{
		Size:  engine.Size{W: 10, H: 10},
		Start: engine.Point{X: 0, Y: 0},
		End:   engine.Point{X: 3, Y: 4},
	})
	return &MockSceneCatalog{
		scenes: map[string]*scene.Document{"walled": walled, "open": open},
		saved:  make(map[string]*scene.Document),
	}
}

func (m *MockSceneCatalog) LoadScene(id string) (*scene.Document, error) {
	doc, exists := m.scenes[id]
	if !exists {
		return nil, service.ErrSceneNotFound
	}
	return doc, nil
}

func (m *MockSceneCatalog) ListScenes() ([]*service.SceneInfo, error) {
	result := make([]*service.SceneInfo, 0, len(m.scenes))
	for id, doc := range m.scenes {
		result = append(result, &service.SceneInfo{SceneID: id, Name: doc.Name})
	}
	return result, nil
}

func (m *MockSceneCatalog) GetDefault() *scene.Document {
	return scene.NewDocument("Default", "", *engine.DefaultScene())
}

func (m *MockSceneCatalog) SaveScene(id string, doc *scene.Document) error {
	m.saved[id] = doc
	m.scenes[id] = doc
	return nil
}

func newTestService() (service.MazeService, *MockRunManager, *MockSceneCatalog) {
	runs := NewMockRunManager()
	catalog := NewMockSceneCatalog()
	return service.NewMazeService(runs, catalog), runs, catalog
}

func TestSolve(t *testing.T) {
	svc, runs, _ := newTestService()
	ctx := context.Background()

	t.Run("open field", func(t *testing.T) {
		info, err := svc.Solve(ctx, "open", service.SolveOptions{})
		if err != nil {
			t.Fatalf("Failed to solve: %v", err)
		}
		if !info.Found || info.Cost != 7 || len(info.Path) != 8 {
			t.Errorf("Expected found path with cost 7 and 8 cells, got found=%v cost=%d cells=%d", info.Found, info.Cost, len(info.Path))
		}
		if len(info.Moves) != 7 {
			t.Errorf("Expected 7 moves, got %d", len(info.Moves))
		}
		if info.Heuristic != string(engine.Manhattan) {
			t.Errorf("Expected manhattan heuristic, got %q", info.Heuristic)
		}
		if info.SceneID != "open" {
			t.Errorf("Expected scene id open, got %q", info.SceneID)
		}
		if info.Grid.Width != 10 || info.Grid.FreeCells != 100 {
			t.Errorf("Unexpected grid summary %+v", info.Grid)
		}
		if _, err := runs.Get(info.ID); err != nil {
			t.Errorf("Expected run %s to be stored", info.ID)
		}
	})

	t.Run("no path is not an error", func(t *testing.T) {
		info, err := svc.Solve(ctx, "walled", service.SolveOptions{Heuristic: "signed"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if info.Found {
			t.Error("Expected no path through the wall")
		}
		if len(info.Path) != 0 || len(info.Moves) != 0 {
			t.Errorf("Expected empty path and moves, got %v %v", info.Path, info.Moves)
		}
		if info.Heuristic != "signed" {
			t.Errorf("Expected signed heuristic, got %q", info.Heuristic)
		}
	})

	t.Run("default scene", func(t *testing.T) {
		info, err := svc.Solve(ctx, "", service.SolveOptions{})
		if err != nil {
			t.Fatalf("Failed to solve default: %v", err)
		}
		if info.SceneID != service.DefaultSceneID {
			t.Errorf("Expected scene id %q, got %q", service.DefaultSceneID, info.SceneID)
		}
	})

	t.Run("unknown scene", func(t *testing.T) {
		_, err := svc.Solve(ctx, "nope", service.SolveOptions{})
		if !errors.Is(err, service.ErrSceneNotFound) {
			t.Fatalf("Expected ErrSceneNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "Available scenes") {
			t.Errorf("Expected available scenes in error, got %v", err)
		}
	})

	t.Run("bad heuristic", func(t *testing.T) {
		_, err := svc.Solve(ctx, "open", service.SolveOptions{Heuristic: "euclid"})
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := svc.Solve(cctx, "open", service.SolveOptions{}); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestRunLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, err := svc.Solve(ctx, "open", service.SolveOptions{})
	if err != nil {
		t.Fatalf("Failed to solve: %v", err)
	}

	got, err := svc.GetRun(ctx, info.ID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got.Cost != info.Cost {
		t.Errorf("Expected cost %d, got %d", info.Cost, got.Cost)
	}

	runs, _ := svc.ListRuns(ctx)
	if len(runs) != 1 {
		t.Errorf("Expected 1 run, got %d", len(runs))
	}

	if err := svc.DeleteRun(ctx, info.ID); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}
	if _, err := svc.GetRun(ctx, info.ID); !errors.Is(err, service.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound after delete, got %v", err)
	}
	if err := svc.DeleteRun(ctx, info.ID); !errors.Is(err, service.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound on second delete, got %v", err)
	}
}

func TestGetRun_ConcurrentAccess(t *testing.T) {
	svc := service.NewMazeService(run.NewManager(), NewMockSceneCatalog())
	ctx := context.Background()

	info, err := svc.Solve(ctx, "open", service.SolveOptions{})
	if err != nil {
		t.Fatalf("Failed to solve: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := svc.GetRun(ctx, info.ID)
				if err != nil {
					t.Errorf("Concurrent get failed: %v", err)
					return
				}
				if got.LastAccessedAt.Before(info.CreatedAt) {
					t.Errorf("Expected last access after creation, got %v", got.LastAccessedAt)
					return
				}
			}
			if _, err := svc.ListRuns(ctx); err != nil {
				t.Errorf("Concurrent list failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestGetRun_AccessUpdateFailure(t *testing.T) {
	svc, runs, _ := newTestService()
	ctx := context.Background()

	info, err := svc.Solve(ctx, "open", service.SolveOptions{})
	if err != nil {
		t.Fatalf("Failed to solve: %v", err)
	}

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	runs.updateErr = errors.New("disk full")
	got, err := svc.GetRun(ctx, info.ID)
	if err != nil {
		t.Fatalf("Expected run despite access update failure, got %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("Expected run %s, got %s", info.ID, got.ID)
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Errorf("Expected access update failure to be logged, got %q", logs.String())
	}
}

func TestRenderRun(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, err := svc.Solve(ctx, "open", service.SolveOptions{})
	if err != nil {
		t.Fatalf("Failed to solve: %v", err)
	}

	t.Run("svg by default", func(t *testing.T) {
		out, err := svc.RenderRun(ctx, info.ID, service.RenderOptions{})
		if err != nil {
			t.Fatalf("Failed to render: %v", err)
		}
		if out.ContentType != "image/svg+xml" {
			t.Errorf("Expected svg content type, got %q", out.ContentType)
		}
		if !bytes.HasPrefix(out.Data, []byte("<svg")) {
			t.Errorf("Expected svg document, got %q", out.Data[:20])
		}
	})

	t.Run("png", func(t *testing.T) {
		out, err := svc.RenderRun(ctx, info.ID, service.RenderOptions{Format: render.FormatPNG, CellPixels: 4})
		if err != nil {
			t.Fatalf("Failed to render: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(out.Data))
		if err != nil {
			t.Fatalf("Failed to decode png: %v", err)
		}
		if img.Bounds().Dx() != 40 {
			t.Errorf("Expected 40px wide image, got %d", img.Bounds().Dx())
		}
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := svc.RenderRun(ctx, info.ID, service.RenderOptions{Format: "gif"})
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := svc.RenderRun(ctx, "zzzz", service.RenderOptions{})
		if !errors.Is(err, service.ErrRunNotFound) {
			t.Errorf("Expected ErrRunNotFound, got %v", err)
		}
	})
}

func TestDescribeCell(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, err := svc.Solve(ctx, "walled", service.SolveOptions{})
	if err != nil {
		t.Fatalf("Failed to solve: %v", err)
	}

	cell, err := svc.DescribeCell(ctx, info.ID, 3, 1)
	if err != nil {
		t.Fatalf("Failed to describe cell: %v", err)
	}
	if !cell.Blocked || !cell.InBounds || cell.OnPath {
		t.Errorf("Expected blocked in-bounds cell off the path, got %+v", cell)
	}

	start, _ := svc.DescribeCell(ctx, info.ID, 0, 1)
	if !start.IsStart {
		t.Errorf("Expected (0,1) to be the start, got %+v", start)
	}
}

func TestSaveScene(t *testing.T) {
	svc, _, catalog := newTestService()
	ctx := context.Background()

	doc := scene.NewDocument("Tiny", "", engine.Scene{Size: engine.Size{W: 2, H: 2}, End: engine.Point{X: 1, Y: 1}})
	if err := svc.SaveScene(ctx, "tiny", doc); err != nil {
		t.Fatalf("Failed to save scene: %v", err)
	}
	if catalog.saved["tiny"] == nil {
		t.Error("Expected scene to reach the catalog")
	}

	got, err := svc.GetScene(ctx, "tiny")
	if err != nil || got.Name != "Tiny" {
		t.Errorf("Expected saved scene back, got %+v, %v", got, err)
	}

	t.Run("invalid geometry", func(t *testing.T) {
		bad := scene.NewDocument("Bad", "", engine.Scene{Size: engine.Size{W: -1, H: 2}})
		if err := svc.SaveScene(ctx, "bad", bad); !errors.Is(err, engine.ErrInvalidScene) {
			t.Errorf("Expected ErrInvalidScene, got %v", err)
		}
	})

	t.Run("missing shapes", func(t *testing.T) {
		if err := svc.SaveScene(ctx, "empty", &scene.Document{}); !errors.Is(err, scene.ErrMissingShape) {
			t.Errorf("Expected ErrMissingShape, got %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if err := svc.SaveScene(ctx, "", doc); !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})
}
