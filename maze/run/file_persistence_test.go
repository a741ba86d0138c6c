package run

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
)

func TestFilePersistence(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "run_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	persistence, err := NewFilePersistence(tempDir)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}

	solved := createTestSolution()
	run := &service.Run{
		ID:             "ab12",
		SceneID:        "corridor",
		Solution:       solved,
		CreatedAt:      time.Now().Truncate(time.Second),
		LastAccessedAt: time.Now().Truncate(time.Second),
	}

	t.Run("Save and Load Run", func(t *testing.T) {
		if err := persistence.Save(run); err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
		if !persistence.Exists("ab12") {
			t.Error("Run file should exist after save")
		}

		loaded, err := persistence.Load("AB12")
		if err != nil {
			t.Fatalf("Failed to load run: %v", err)
		}
		if loaded.SceneID != "corridor" {
			t.Errorf("Expected scene ID corridor, got %s", loaded.SceneID)
		}
		if !loaded.CreatedAt.Equal(run.CreatedAt) {
			t.Errorf("Expected created at %v, got %v", run.CreatedAt, loaded.CreatedAt)
		}
		if loaded.Solution.Grid == nil {
			t.Fatal("Expected grid to be rebuilt on load")
		}
		if loaded.Solution.Grid.Width != solved.Grid.Width || len(loaded.Solution.Grid.Blocked) != len(solved.Grid.Blocked) {
			t.Error("Expected rebuilt grid to match the original")
		}
		if loaded.Solution.Result.Cost != solved.Result.Cost || len(loaded.Solution.Result.Path) != len(solved.Result.Path) {
			t.Errorf("Expected result %+v, got %+v", solved.Result, loaded.Solution.Result)
		}
		if err := engine.ValidatePath(loaded.Solution.Grid, loaded.Solution.Result.Path); err != nil {
			t.Errorf("Expected restored path to be valid: %v", err)
		}
	})

	t.Run("List All Runs", func(t *testing.T) {
		other := *run
		other.ID = "cd34"
		if err := persistence.Save(&other); err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
		if err := os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write stray file: %v", err)
		}

		ids, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("Failed to list runs: %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("Expected 2 run IDs, got %v", ids)
		}
	})

	t.Run("Delete Run", func(t *testing.T) {
		if err := persistence.Delete("cd34"); err != nil {
			t.Fatalf("Failed to delete run: %v", err)
		}
		if persistence.Exists("cd34") {
			t.Error("Run file should be gone after delete")
		}
		if err := persistence.Delete("cd34"); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Load Missing Run", func(t *testing.T) {
		if _, err := persistence.Load("none"); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("Expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Load Corrupt Run", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(tempDir, "bad1.json"), []byte("{not json"), 0644); err != nil {
			t.Fatalf("Failed to write corrupt file: %v", err)
		}
		if _, err := persistence.Load("bad1"); err == nil {
			t.Error("Expected error for corrupt run file")
		}
	})

	t.Run("Save Nil Run", func(t *testing.T) {
		if err := persistence.Save(nil); err == nil {
			t.Error("Expected error for nil run")
		}
	})
}

func TestManagerWithPersistence(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "manager_persistence_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	persistence, err := NewFilePersistence(tempDir)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	manager := NewManagerWithPersistence(persistence)

	t.Run("Create Run Auto-Saves", func(t *testing.T) {
		run, err := manager.Create("auto1", "corridor", createTestSolution())
		if err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
		if !persistence.Exists(run.ID) {
			t.Error("Run should be auto-saved on creation")
		}
	})

	t.Run("Get Falls Back To Disk", func(t *testing.T) {
		if err := manager.DeleteFromMemory("auto1"); err != nil {
			t.Fatalf("Failed to delete from memory: %v", err)
		}
		run, err := manager.Get("auto1")
		if err != nil {
			t.Fatalf("Expected run to load from disk, got %v", err)
		}
		if run.Solution.Grid == nil {
			t.Error("Expected grid on a run loaded from disk")
		}
	})

	t.Run("Load Persisted Runs On Restart", func(t *testing.T) {
		restarted := NewManagerWithPersistence(persistence)
		if err := restarted.LoadPersistedRuns(); err != nil {
			t.Fatalf("Failed to load persisted runs: %v", err)
		}
		if restarted.Count() != 1 {
			t.Errorf("Expected 1 run after restart, got %d", restarted.Count())
		}
	})

	t.Run("Save All Runs", func(t *testing.T) {
		if err := manager.SaveAllRuns(); err != nil {
			t.Errorf("Failed to save all runs: %v", err)
		}
	})

	t.Run("Delete Removes File", func(t *testing.T) {
		if err := manager.Delete("auto1"); err != nil {
			t.Fatalf("Failed to delete run: %v", err)
		}
		if persistence.Exists("auto1") {
			t.Error("Run file should be removed on delete")
		}
	})
}
