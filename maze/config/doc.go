// Package config provides the scene catalog for mazegrid.
//
// The config package handles:
//   - Loading scenes from SVG, YAML and JSON files in a catalog directory
//   - Scene validation before anything reaches the solver
//   - Default scene selection
//   - Scene discovery, listing and saving
//   - Cache invalidation when files change on disk
//
// Scene Files:
//
// A scene's ID is its filename without extension. When several files share
// an ID, the first of .svg, .yaml, .yml, .json wins. SVG drawings use a rect
// with id "bg" for the field and circles "start" and "end" for the
// endpoints; every other rect is an obstacle. YAML and JSON documents carry
// the same shapes as named fields plus a display name and description.
//
// Usage:
//
//	manager, err := config.NewManager("scenes")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	doc, err := manager.LoadScene("corridor")
//	scenes, err := manager.ListScenes()
//
//	// Pick up edits without restarting
//	manager.Watch(ctx)
//
// Default Scene:
//
// default.* is used when present, otherwise the first listed scene, otherwise
// a built-in 20x12 scene.
package config
