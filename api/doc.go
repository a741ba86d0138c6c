// Package api provides the HTTP REST API for mazegrid.
//
// Endpoints:
//
// Scenes:
//   - GET /api/scenes - List catalog scenes
//   - POST /api/scenes - Save a scene document ({id, name, background, start, end, obstacles})
//   - GET /api/scenes/{id} - Get a scene document
//   - POST /api/scenes/{id}/solve - Solve a scene ({heuristic} body or ?heuristic=)
//
// Runs:
//   - GET /api/runs - List runs (?sort=created|accessed|cost&order=asc|desc&limit=N&scene=id)
//   - GET /api/runs/{id} - Get a run with its path and move list
//   - DELETE /api/runs/{id} - Delete a run
//   - GET /api/runs/{id}/render.svg - Render a run as SVG
//   - GET /api/runs/{id}/render.png - Render a run as PNG (?scale=pixels per cell)
//   - GET /api/runs/{id}/cells/{x}/{y} - Describe one grid cell
//
// Other:
//   - GET /api/health - Health check
//   - GET /ws?scene={id} - WebSocket feed of solve events (empty scene for all)
//
// Error Handling:
//
// Errors are returned as JSON: {"error": "message"}. Unknown scenes and runs
// map to 404, malformed scenes and bad parameters to 400, everything else
// to 500.
//
// Usage:
//
//	server := api.NewServer(mazeService, hub)
//	http.ListenAndServe(":8080", server)
package api
