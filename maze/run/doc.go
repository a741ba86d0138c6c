// Package run stores solve results for mazegrid.
//
// A run is one solve of one scene: the scene as it was solved, the heuristic
// used and the search result. Runs are kept in memory by Manager and can be
// written through to disk with FilePersistence.
//
// Run Identifiers:
//
// Runs use random 4-character hex IDs and are looked up case-insensitively.
//
// Persistence:
//
// FilePersistence writes one JSON file per run. The scene is stored inline so
// a run keeps rendering the same way after its catalog file is edited. The
// grid is not stored; it is rebuilt from the scene on load.
//
// Usage:
//
//	persistence, err := run.NewFilePersistence("runs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := run.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedRuns()
//
//	r, err := manager.Create("", "corridor", engine.Solve(scene))
package run
