// Command analyze prints quick, human-readable statistics about the scene
// files in the project's scenes directory. It summarizes grid dimensions,
// obstacle coverage and reachability, then solves each scene with every
// heuristic and compares path cost and search effort.
//
// Usage: analyze [scenes-dir] (defaults to scenes)
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
)

// heuristics lists the estimates compared for every scene
var heuristics = []engine.HeuristicKind{engine.Manhattan, engine.Signed}

// SceneStats is the grid-level summary of one scene
type SceneStats struct {
	Name          string
	Width, Height int
	Obstacles     int
	Blocked       int // blocked cells inside the grid
	OutOfBounds   int // blocked cells past the background
	Overlap       int // cells covered by more than one obstacle, counted per extra cover
	Free          int
	Reachable     int
}

// Coverage is the fraction of grid cells that are blocked
func (s SceneStats) Coverage() float64 {
	total := s.Width * s.Height
	if total == 0 {
		return 0
	}
	return float64(s.Blocked) / float64(total)
}

// HeuristicRun is the search outcome for one heuristic
type HeuristicRun struct {
	Heuristic engine.HeuristicKind
	Result    engine.Result
}

func main() {
	sceneDir := "scenes"
	if len(os.Args) > 1 {
		sceneDir = os.Args[1]
	}

	entries, err := os.ReadDir(sceneDir)
	if err != nil {
		fmt.Printf("Error reading scenes directory: %v\n", err)
		os.Exit(1)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := scene.FormatForPath(entry.Name()); err == nil {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", file)
		analyzeScene(os.Stdout, filepath.Join(sceneDir, file))
	}
}

func analyzeScene(w io.Writer, path string) {
	doc, err := scene.LoadFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error loading scene: %v\n", err)
		return
	}

	s := doc.Scene()
	if err := engine.ValidateScene(&s); err != nil {
		fmt.Fprintf(w, "Error validating scene: %v\n", err)
		return
	}

	name := doc.Name
	if name == "" {
		base := filepath.Base(path)
		name = base[:len(base)-len(filepath.Ext(base))]
	}

	grid := engine.Rasterize(s)
	stats := collectStats(name, s, grid)

	fmt.Fprintf(w, "Name: %s\n", stats.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", stats.Width, stats.Height)
	fmt.Fprintf(w, "Start: %s  End: %s\n", grid.Start, grid.End)
	fmt.Fprintf(w, "Obstacles: %d\n", stats.Obstacles)
	fmt.Fprintf(w, "Blocked Cells: %d (%.1f%% coverage)\n", stats.Blocked, stats.Coverage()*100)
	fmt.Fprintf(w, "Free Cells: %d\n", stats.Free)

	if stats.OutOfBounds > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d blocked cells fall outside the background\n", stats.OutOfBounds)
	}
	if stats.Overlap > 0 {
		fmt.Fprintf(w, "Overlapping Cover: %d cells\n", stats.Overlap)
	}

	if stats.Reachable < stats.Free {
		fmt.Fprintf(w, "⚠️  WARNING: %d free cells are unreachable from the start\n", stats.Free-stats.Reachable)
	} else {
		fmt.Fprintf(w, "✅ All free cells are reachable from the start\n")
	}

	runs := compareHeuristics(grid)
	for _, run := range runs {
		if run.Result.Found {
			fmt.Fprintf(w, "%-9s cost %d, %d expanded\n", run.Heuristic+":", run.Result.Cost, run.Result.Expanded)
		} else {
			fmt.Fprintf(w, "%-9s no path, %d expanded\n", run.Heuristic+":", run.Result.Expanded)
		}
	}

	best := runs[0].Result
	for _, run := range runs[1:] {
		if run.Result.Found && best.Found && run.Result.Cost > best.Cost {
			fmt.Fprintf(w, "⚠️  %s heuristic returned a longer path (+%d)\n", run.Heuristic, run.Result.Cost-best.Cost)
		}
	}
	if !best.Found {
		fmt.Fprintf(w, "⚠️  CRITICAL: end is unreachable from start\n")
	}
}

// collectStats counts cover and reachability for a rasterized scene
func collectStats(name string, s engine.Scene, grid *engine.Grid) SceneStats {
	stats := SceneStats{
		Name:      name,
		Width:     grid.Width,
		Height:    grid.Height,
		Obstacles: len(s.Obstacles),
		Blocked:   engine.CountBlockedInBounds(grid),
		Free:      engine.CountFreeCells(grid),
		Reachable: len(engine.ReachableCells(grid)),
	}
	stats.OutOfBounds = len(grid.Blocked) - stats.Blocked

	covered := 0
	for _, obstacle := range s.Obstacles {
		covered += len(engine.Rasterize(engine.Scene{Origin: s.Origin, Obstacles: []engine.Rect{obstacle}}).Blocked)
	}
	stats.Overlap = covered - len(grid.Blocked)

	return stats
}

// compareHeuristics searches grid once per heuristic, Manhattan first
func compareHeuristics(grid *engine.Grid) []HeuristicRun {
	runs := make([]HeuristicRun, 0, len(heuristics))
	for _, h := range heuristics {
		runs = append(runs, HeuristicRun{
			Heuristic: h,
			Result:    engine.FindPath(grid, engine.WithHeuristic(h)),
		})
	}
	return runs
}
