package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"mazegrid",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`mazegrid - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A scene is a background rectangle with rectangular obstacles, a start point and
an end point. Solving a scene rasterizes it into unit cells and runs A* with
4-directional moves of cost 1. Each solve is stored as a run.

AVAILABLE TOOLS:
- list_scenes: List catalog scenes
- solve_scene: Solve a scene and store the run
- get_run: Get a run with its path and moves
- list_runs: List stored runs
- describe_cell: Inspect one cell of a run's grid
- render_run: Render a run as SVG text or a PNG image
- maze_instructions: Coordinate conventions and scene format`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenes",
		Description: "List scenes available in the catalog",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_scene",
		Description: "Rasterize a scene and find the shortest path from start to end",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scene_id": map[string]interface{}{
					"type":        "string",
					"description": "Scene to solve (empty for the default scene)",
				},
				"heuristic": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"manhattan", "signed"},
					"description": "Search heuristic (default manhattan)",
				},
			},
		},
	}, c.handleSolveScene)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Get a stored run with its path and move list",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List stored runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scene_id": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this scene (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe a grid cell of a run: bounds, blocked, on path, start or end.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column) of the cell, 0-based from the scene origin",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row) of the cell, 0-based from the scene origin",
				},
			},
			Required: []string{"run_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "render_run",
		Description: "Render a run. SVG is returned as text, PNG as an image.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"svg", "png"},
					"description": "Image format (default svg)",
				},
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "PNG pixels per cell (optional)",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleRenderRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "maze_instructions",
		Description: "Get coordinate conventions and the scene document format",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("API error: %d", resp.StatusCode)
	}

	return resp, nil
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// arguments returns the tool call arguments as a map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleListScenes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count  int                 `json:"count"`
		Scenes []service.SceneInfo `json:"scenes"`
	}

	if err := c.apiCall(ctx, "GET", "/api/scenes", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSceneList(response.Scenes)), nil
}

func (c *Client) handleSolveScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sceneID, _ := args["scene_id"].(string)
	heuristic, _ := args["heuristic"].(string)
	if sceneID == "" {
		sceneID = service.DefaultSceneID
	}

	body := map[string]string{}
	if heuristic != "" {
		body["heuristic"] = heuristic
	}

	var info service.RunInfo
	path := fmt.Sprintf("/api/scenes/%s/solve", url.PathEscape(sceneID))
	if err := c.apiCall(ctx, "POST", path, body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunInfo(&info)), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	var info service.RunInfo
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(runID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunInfo(&info)), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	if sceneID, _ := args["scene_id"].(string); sceneID != "" {
		query.Set("scene", sceneID)
	}
	if limit, ok := intArg(args, "limit"); ok && limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}

	path := "/api/runs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count int               `json:"count"`
		Total int               `json:"total"`
		Runs  []service.RunInfo `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunList(response.Runs, response.Total)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	runID, _ := args["run_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if runID == "" || !okX || !okY {
		return mcp.NewToolResultError("run_id, x and y are required"), nil
	}

	var info engine.CellInfo
	path := fmt.Sprintf("/api/runs/%s/cells/%d/%d", url.PathEscape(runID), x, y)
	if err := c.apiCall(ctx, "GET", path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCellInfo(&info)), nil
}

func (c *Client) handleRenderRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	runID, _ := args["run_id"].(string)
	format, _ := args["format"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}
	if format == "" {
		format = "svg"
	}

	path := fmt.Sprintf("/api/runs/%s/render.%s", url.PathEscape(runID), url.PathEscape(format))
	if scale, ok := args["scale"].(float64); ok && scale > 0 {
		path += fmt.Sprintf("?scale=%g", scale)
	}

	resp, err := c.do(ctx, "GET", path, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "image/png") {
		return mcp.NewToolResultImage(
			fmt.Sprintf("Run %s rendered as PNG (%d bytes)", runID, len(data)),
			base64.StdEncoding.EncodeToString(data),
			"image/png",
		), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `mazegrid - Instructions

SCENES:
A scene is a background rectangle (origin and size), a list of rectangular
obstacles, a start point and an end point. All coordinates share one system.
Scenes live in the catalog as SVG drawings or YAML/JSON documents:

  name: corridor
  background: {x: 0, y: 0, width: 20, height: 12}
  start: {x: 1, y: 1}
  end: {x: 18, y: 10}
  obstacles:
    - {x: 5, y: 0, width: 1.5, height: 9}

In SVG, the rect with id="bg" is the background, other rects are obstacles,
and the circles with id="start" and id="end" mark the endpoints.

GRID:
- The grid is ceil(width) x ceil(height) unit cells, indexed from the
  background origin. x grows to the right, y grows downward.
- An obstacle blocks every cell it touches, even partially.
- Start and end snap to the nearest cell (halves round away from zero).

SEARCH:
- Moves are left, right, up and down with cost 1. No diagonals.
- The path includes both start and end; cost is the number of moves.
- A start or end outside the grid, or a walled-in end, gives "no path".
- Heuristics: manhattan (default) or signed. Both return optimal paths.

WORKFLOW:
1. list_scenes to see what is available
2. solve_scene with a scene_id
3. describe_cell or render_run to inspect the result`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSceneList(scenes []service.SceneInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenes (%d):\n\n", len(scenes))
	for _, s := range scenes {
		fmt.Fprintf(&b, "- %s (%s, %gx%g, %d obstacles)", s.SceneID, s.Format, s.Width, s.Height, s.Obstacles)
		if s.Name != "" && s.Name != s.SceneID {
			fmt.Fprintf(&b, " %q", s.Name)
		}
		if s.Description != "" {
			fmt.Fprintf(&b, ": %s", s.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatRunInfo(info *service.RunInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\nScene: %s\nHeuristic: %s\n", info.ID, info.SceneID, info.Heuristic)
	fmt.Fprintf(&b, "Grid: %dx%d, start %s, end %s, %d blocked, %d free\n",
		info.Grid.Width, info.Grid.Height, info.Grid.Start, info.Grid.End, info.Grid.BlockedCells, info.Grid.FreeCells)
	fmt.Fprintf(&b, "Expanded: %d\n", info.Expanded)

	if !info.Found {
		b.WriteString("Result: ✗ no path\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Result: ✓ path found, cost %d\n", info.Cost)
	cells := make([]string, len(info.Path))
	for i, c := range info.Path {
		cells[i] = c.String()
	}
	fmt.Fprintf(&b, "Path: %s\n", strings.Join(cells, " "))
	if len(info.Moves) > 0 {
		moves := make([]string, len(info.Moves))
		for i, m := range info.Moves {
			moves[i] = string(m)
		}
		fmt.Fprintf(&b, "Moves: %s\n", strings.Join(moves, ","))
	}
	return b.String()
}

func formatRunList(runs []service.RunInfo, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d of %d):\n\n", len(runs), total)
	for _, r := range runs {
		status := "no path"
		if r.Found {
			status = fmt.Sprintf("cost %d", r.Cost)
		}
		fmt.Fprintf(&b, "- %s scene=%s %s (%s, Created: %s)\n",
			r.ID, r.SceneID, status, r.Heuristic, r.CreatedAt.Format("15:04:05"))
	}
	return b.String()
}

func formatCellInfo(info *engine.CellInfo) string {
	var notes []string
	switch {
	case !info.InBounds:
		notes = append(notes, "outside the grid")
	case info.Blocked:
		notes = append(notes, "blocked by an obstacle")
	default:
		notes = append(notes, "free")
	}
	if info.IsStart {
		notes = append(notes, "start cell")
	}
	if info.IsEnd {
		notes = append(notes, "end cell")
	}
	if info.OnPath {
		notes = append(notes, fmt.Sprintf("path step %d", info.PathStep))
	}

	passable := info.InBounds && !info.Blocked
	return fmt.Sprintf("Cell %s:\nPassable: %v\nNotes: %s\n", info.Cell, passable, strings.Join(notes, ", "))
}
