// Package service provides the business logic layer for mazegrid.
//
// The service package implements:
//   - Scene catalog access (list, load, save)
//   - Solving a scene into a stored run
//   - Run lifecycle (get, list, delete)
//   - Rendering runs as SVG or PNG
//   - Per-cell inspection of a solved grid
//
// Core Interfaces:
//
// MazeService is the main service interface used by the REST, MCP and CLI
// front ends. RunManager stores runs. SceneCatalog loads scenes by ID.
//
// Usage:
//
//	runMgr := run.NewManager()
//	catalog, _ := config.NewManager("scenes")
//	mazeService := service.NewMazeService(runMgr, catalog)
//
//	info, err := mazeService.Solve(ctx, "corridor", service.SolveOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if !info.Found {
//		log.Println("no path")
//	}
//
// A solve that finds no path is a normal result, not an error.
package service
