// Command validate provides a small CLI that validates maze scene files
// (SVG, YAML or JSON) in a scenes directory. It checks:
//   - The file parses and has a background, start and end
//   - Coordinates are finite and the grid fits the size limits
//   - Start and end fall inside the grid and off every obstacle
//   - Connectivity: the end is reachable from the start over free cells
//
// Usage: validate [scenes-dir] (defaults to ../scenes)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateScene loads and validates a single scene file. Endpoint checks
// and reachability only run once the scene itself is well formed.
func validateScene(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	doc, err := scene.LoadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to load scene: %v", err))
		return result
	}

	s := doc.Scene()
	if err := engine.ValidateScene(&s); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	grid := engine.Rasterize(s)
	if grid.Width == 0 || grid.Height == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Grid is empty: %dx%d", grid.Width, grid.Height))
		return result
	}

	endpoints := []struct {
		name string
		cell engine.Cell
	}{
		{"Start", grid.Start},
		{"End", grid.End},
	}
	for _, ep := range endpoints {
		if !grid.InBounds(ep.cell) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s is outside the %dx%d grid", ep.name, ep.cell, grid.Width, grid.Height))
		} else if grid.IsBlocked(ep.cell) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s is covered by an obstacle", ep.name, ep.cell))
		}
	}

	// Connectivity validation - check the end is reachable from the start
	if result.Valid {
		reachabilityResult := validateConnectivity(grid)
		if !reachabilityResult.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, reachabilityResult.Errors...)
	}

	// Add informational data
	if result.Valid {
		name := doc.Name
		if name == "" {
			name = strings.TrimSuffix(result.File, filepath.Ext(result.File))
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", grid.Width, grid.Height))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Obstacles: %d", len(s.Obstacles)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Blocked cells: %d", engine.CountBlockedInBounds(grid)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Start %s, end %s", grid.Start, grid.End))
	}

	return result
}

// validateConnectivity flood-fills from the start and reports whether the
// end was reached, along with the shortest path cost when it was.
func validateConnectivity(grid *engine.Grid) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if grid.Width == 0 || grid.Height == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Cannot validate connectivity: empty grid")
		return result
	}

	reachable := engine.ReachableCells(grid)
	free := engine.CountFreeCells(grid)

	if !reachable[grid.End] {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: end %s unreachable from start %s", grid.End, grid.Start))
		result.Errors = append(result.Errors, fmt.Sprintf("Reachable: %d/%d free cells", len(reachable), free))
		return result
	}

	path := engine.FindPath(grid)
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: end reachable, path cost %d", path.Cost))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Reachable: %d/%d free cells", len(reachable), free))

	return result
}

// sceneFiles lists every file in dir with a recognized scene extension
func sceneFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range scene.Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// main scans the scenes directory and validates each file, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	sceneDir := "../scenes"
	if len(os.Args) > 1 {
		sceneDir = os.Args[1]
	}

	files, err := sceneFiles(sceneDir)
	if err != nil {
		fmt.Printf("Error finding scene files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No scene files found in %s\n", sceneDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateScene(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scenes are valid!")
	} else {
		fmt.Println("❌ Some scenes have errors")
		os.Exit(1)
	}
}
