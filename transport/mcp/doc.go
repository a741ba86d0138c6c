// Package mcp exposes mazegrid to AI agents over the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a REST request against a
// running mazegrid server, and the JSON response is formatted as text.
//
// MCP Tools:
//   - list_scenes: List catalog scenes
//   - solve_scene: Solve a scene and store the run
//   - get_run: Get a run with its path and moves
//   - list_runs: List runs, optionally for one scene
//   - describe_cell: Inspect one grid cell of a run
//   - render_run: Render a run as SVG text or a PNG image
//   - maze_instructions: Coordinate conventions and scene format
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
