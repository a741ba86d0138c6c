package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
)

const corridorYAML = `name: Corridor
description: Two offset walls
background: {x: 0, y: 0, width: 12, height: 6}
start: {x: 0, y: 0}
end: {x: 11, y: 5}
obstacles:
  - {x: 3, y: 0, width: 1, height: 4}
  - {x: 7, y: 2, width: 1, height: 4}
`

const boxSVG = `<svg xmlns="http://www.w3.org/2000/svg">
  <rect id="bg" x="0" y="0" width="8" height="8"/>
  <rect id="wall" x="4" y="0" width="1" height="6"/>
  <circle id="start" cx="1" cy="1" r="1"/>
  <circle id="end" cx="7" cy="1" r="1"/>
</svg>`

func createTestSceneDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "scene-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	return dir
}

func writeSceneFile(t *testing.T, dir, name, content string) {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := createTestSceneDir(t)
		defer os.RemoveAll(dir)
		writeSceneFile(t, dir, "corridor.yaml", corridorYAML)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Corridor" {
			t.Errorf("Expected first listed scene as default, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory falls back to built-in", func(t *testing.T) {
		dir := createTestSceneDir(t)
		defer os.RemoveAll(dir)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("NewManager should succeed without scene files, got error: %v", err)
		}
		def := manager.GetDefault()
		if def == nil || def.Name != DefaultSceneName {
			t.Fatalf("Expected built-in default scene, got %+v", def)
		}
		s := def.Scene()
		if s.Size != engine.DefaultScene().Size {
			t.Errorf("Expected built-in size, got %+v", s.Size)
		}
	})

	t.Run("default file wins", func(t *testing.T) {
		dir := createTestSceneDir(t)
		defer os.RemoveAll(dir)
		writeSceneFile(t, dir, "corridor.yaml", corridorYAML)
		writeSceneFile(t, dir, "default.svg", boxSVG)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "default" {
			t.Errorf("Expected default.svg to be the default, got %q", manager.GetDefault().Name)
		}
	})
}

func TestLoadScene(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "corridor.yaml", corridorYAML)
	writeSceneFile(t, dir, "box.svg", boxSVG)
	writeSceneFile(t, dir, "broken.json", `{"background": {"x": 0, "y": 0, "width": 2, "height": 2}}`)
	writeSceneFile(t, dir, "huge.yml", "background: {x: 0, y: 0, width: 100000, height: 2}\nstart: {x: 0, y: 0}\nend: {x: 1, y: 1}\n")

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("yaml", func(t *testing.T) {
		doc, err := manager.LoadScene("corridor")
		if err != nil {
			t.Fatalf("Failed to load scene: %v", err)
		}
		if len(doc.Obstacles) != 2 {
			t.Errorf("Expected 2 obstacles, got %d", len(doc.Obstacles))
		}
	})

	t.Run("svg gets id as name", func(t *testing.T) {
		doc, err := manager.LoadScene("box.svg")
		if err != nil {
			t.Fatalf("Failed to load scene: %v", err)
		}
		if doc.Name != "box" {
			t.Errorf("Expected name box, got %q", doc.Name)
		}
	})

	t.Run("cached", func(t *testing.T) {
		first, _ := manager.LoadScene("corridor")
		second, _ := manager.LoadScene("corridor")
		if first != second {
			t.Error("Expected second load to hit the cache")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := manager.LoadScene("nope"); !errors.Is(err, ErrSceneNotFound) {
			t.Errorf("Expected ErrSceneNotFound, got %v", err)
		}
	})

	t.Run("path traversal", func(t *testing.T) {
		if _, err := manager.LoadScene("../etc/passwd"); !errors.Is(err, ErrSceneNotFound) {
			t.Errorf("Expected ErrSceneNotFound, got %v", err)
		}
	})

	t.Run("missing shape", func(t *testing.T) {
		_, err := manager.LoadScene("broken")
		if !errors.Is(err, ErrInvalidScene) || !errors.Is(err, scene.ErrMissingShape) {
			t.Errorf("Expected ErrInvalidScene wrapping ErrMissingShape, got %v", err)
		}
	})

	t.Run("over limits", func(t *testing.T) {
		_, err := manager.LoadScene("huge")
		if !errors.Is(err, ErrInvalidScene) || !errors.Is(err, engine.ErrInvalidScene) {
			t.Errorf("Expected invalid scene error, got %v", err)
		}
	})
}

func TestListScenes(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "corridor.yaml", corridorYAML)
	writeSceneFile(t, dir, "box.svg", boxSVG)
	writeSceneFile(t, dir, "broken.json", `{}`)
	writeSceneFile(t, dir, "notes.txt", "ignore me")
	if err := os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	scenes, err := manager.ListScenes()
	if err != nil {
		t.Fatalf("Failed to list scenes: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("Expected 2 scenes, got %d", len(scenes))
	}

	byID := make(map[string]int)
	for i, s := range scenes {
		byID[s.SceneID] = i
	}
	box := scenes[byID["box"]]
	if box.Format != "svg" || box.Obstacles != 1 || box.Width != 8 {
		t.Errorf("Unexpected box info %+v", box)
	}
	corridor := scenes[byID["corridor"]]
	if corridor.Name != "Corridor" || corridor.Description != "Two offset walls" {
		t.Errorf("Unexpected corridor info %+v", corridor)
	}
}

func TestSaveScene(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "box.svg", boxSVG)
	writeSceneFile(t, dir, "legacy.json", `{"background": {"x": 0, "y": 0, "width": 2, "height": 2}, "start": {"x": 0, "y": 0}, "end": {"x": 1, "y": 1}}`)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	doc := scene.NewDocument("Saved", "round trip", *engine.DefaultScene())

	t.Run("new scene as yaml", func(t *testing.T) {
		if err := manager.SaveScene("saved", doc); err != nil {
			t.Fatalf("Failed to save scene: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "saved.yaml")); err != nil {
			t.Errorf("Expected saved.yaml on disk: %v", err)
		}

		manager.Invalidate("saved")
		loaded, err := manager.LoadScene("saved")
		if err != nil {
			t.Fatalf("Failed to reload saved scene: %v", err)
		}
		if loaded.Name != "Saved" || len(loaded.Obstacles) != 2 {
			t.Errorf("Unexpected reloaded scene %+v", loaded)
		}
	})

	t.Run("existing json stays json", func(t *testing.T) {
		if err := manager.SaveScene("legacy", doc); err != nil {
			t.Fatalf("Failed to save scene: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "legacy.yaml")); !os.IsNotExist(err) {
			t.Error("Expected no yaml twin for a json scene")
		}
		data, _ := os.ReadFile(filepath.Join(dir, "legacy.json"))
		if _, err := scene.ParseDocument(data, scene.FormatJSON); err != nil {
			t.Errorf("Expected valid json on disk: %v", err)
		}
	})

	t.Run("svg is read-only", func(t *testing.T) {
		if err := manager.SaveScene("box", doc); !errors.Is(err, ErrInvalidScene) {
			t.Errorf("Expected ErrInvalidScene, got %v", err)
		}
	})

	t.Run("invalid geometry", func(t *testing.T) {
		bad := scene.NewDocument("Bad", "", engine.Scene{Size: engine.Size{W: -3, H: 1}})
		if err := manager.SaveScene("bad", bad); !errors.Is(err, ErrInvalidScene) {
			t.Errorf("Expected ErrInvalidScene, got %v", err)
		}
	})

	t.Run("saving default updates default", func(t *testing.T) {
		if err := manager.SaveScene(DefaultSceneName, doc); err != nil {
			t.Fatalf("Failed to save default: %v", err)
		}
		if manager.GetDefault() != doc {
			t.Error("Expected default scene to be replaced")
		}
	})
}

func TestSetDefault(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "corridor.yaml", corridorYAML)
	writeSceneFile(t, dir, "box.svg", boxSVG)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("pin a scene", func(t *testing.T) {
		if err := manager.SetDefault("box.svg"); err != nil {
			t.Fatalf("Failed to set default: %v", err)
		}
		if w := manager.GetDefault().Background.Width; w != 8 {
			t.Errorf("Expected box scene (width 8) as default, got width %g", w)
		}
	})

	t.Run("survives refresh", func(t *testing.T) {
		if err := manager.RefreshCache(); err != nil {
			t.Fatalf("Failed to refresh cache: %v", err)
		}
		if w := manager.GetDefault().Background.Width; w != 8 {
			t.Errorf("Expected box scene to stay default after refresh, got width %g", w)
		}
	})

	t.Run("unknown scene", func(t *testing.T) {
		if err := manager.SetDefault("missing"); !errors.Is(err, ErrSceneNotFound) {
			t.Errorf("Expected ErrSceneNotFound, got %v", err)
		}
		if w := manager.GetDefault().Background.Width; w != 8 {
			t.Errorf("Expected default to be unchanged, got width %g", w)
		}
	})
}

func TestRefreshCache(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "corridor.yaml", corridorYAML)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	before, _ := manager.LoadScene("corridor")

	writeSceneFile(t, dir, "corridor.yaml", "name: Renamed\nbackground: {x: 0, y: 0, width: 3, height: 3}\nstart: {x: 0, y: 0}\nend: {x: 2, y: 2}\n")
	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("Failed to refresh cache: %v", err)
	}

	after, _ := manager.LoadScene("corridor")
	if after == before || after.Name != "Renamed" {
		t.Errorf("Expected reloaded scene, got %q", after.Name)
	}
}

func TestConcurrentLoads(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "corridor.yaml", corridorYAML)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			manager.Invalidate("corridor")
			if _, err := manager.LoadScene("corridor"); err != nil {
				t.Errorf("Concurrent load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestWatchInvalidatesCache(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "corridor.yaml", corridorYAML)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if _, err := manager.LoadScene("corridor"); err != nil {
		t.Fatalf("Failed to load scene: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := manager.Watch(ctx); err != nil {
		t.Fatalf("Failed to watch: %v", err)
	}

	writeSceneFile(t, dir, "corridor.yaml", "name: Edited\nbackground: {x: 0, y: 0, width: 3, height: 3}\nstart: {x: 0, y: 0}\nend: {x: 2, y: 2}\n")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		doc, err := manager.LoadScene("corridor")
		if err == nil && doc.Name == "Edited" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("Expected the watcher to pick up the edited scene")
}

func TestWatchPicksUpRapidSecondEdit(t *testing.T) {
	dir := createTestSceneDir(t)
	defer os.RemoveAll(dir)
	writeSceneFile(t, dir, "corridor.yaml", corridorYAML)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := manager.Watch(ctx); err != nil {
		t.Fatalf("Failed to watch: %v", err)
	}

	sceneOfWidth := func(w int) string {
		return fmt.Sprintf("background: {x: 0, y: 0, width: %d, height: 3}\nstart: {x: 0, y: 0}\nend: {x: 2, y: 2}\n", w)
	}

	writeSceneFile(t, dir, "corridor.yaml", sceneOfWidth(6))
	time.Sleep(20 * time.Millisecond)
	if _, err := manager.LoadScene("corridor"); err != nil {
		t.Fatalf("Failed to load scene: %v", err)
	}
	writeSceneFile(t, dir, "corridor.yaml", sceneOfWidth(7))

	deadline := time.Now().Add(3 * time.Second)
	width := 0.0
	for time.Now().Before(deadline) {
		doc, err := manager.LoadScene("corridor")
		if err == nil {
			width = doc.Background.Width
			if width == 7 {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("Expected cached scene to reach width 7, got %g", width)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		writeSceneFile(t, dir, "burst.yaml", fmt.Sprintf("name: v%d\n", i))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case name := <-w.Events:
		if filepath.Base(name) != "burst.yaml" {
			t.Errorf("Expected burst.yaml event, got %s", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected an event after the burst settled")
	}

	select {
	case name := <-w.Events:
		t.Errorf("Expected a single event for the burst, got another for %s", name)
	case <-time.After(3 * debounceWindow):
	}
}

func TestWatcher_FiltersAndCloses(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	writeSceneFile(t, dir, "notes.txt", "ignored")
	writeSceneFile(t, dir, "maze.svg", boxSVG)

	select {
	case name := <-w.Events:
		if filepath.Base(name) != "maze.svg" {
			t.Errorf("Expected maze.svg event, got %s", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected an event for maze.svg")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Failed to close watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}
}
