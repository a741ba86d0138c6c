package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/mazegrid/maze/config"
	"github.com/wricardo/mcp-training/mazegrid/maze/engine"
	"github.com/wricardo/mcp-training/mazegrid/maze/render"
	"github.com/wricardo/mcp-training/mazegrid/maze/scene"
	"github.com/wricardo/mcp-training/mazegrid/maze/service"
	"github.com/wricardo/mcp-training/mazegrid/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.MazeService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(mazeService service.MazeService, hub *websocket.Hub) *Server {
	s := &Server{
		service: mazeService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Scene catalog
	api.HandleFunc("/scenes", s.handleListScenes).Methods("GET")
	api.HandleFunc("/scenes", s.handleSaveScene).Methods("POST")
	api.HandleFunc("/scenes/{id}", s.handleGetScene).Methods("GET")
	api.HandleFunc("/scenes/{id}/solve", s.handleSolve).Methods("POST")

	// Runs
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")
	api.HandleFunc("/runs/{id}/render.{format}", s.handleRenderRun).Methods("GET")
	api.HandleFunc("/runs/{id}/cells/{x:-?[0-9]+}/{y:-?[0-9]+}", s.handleDescribeCell).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSceneNotFound), errors.Is(err, service.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, engine.ErrInvalidScene),
		errors.Is(err, config.ErrInvalidScene),
		errors.Is(err, scene.ErrMissingShape),
		errors.Is(err, scene.ErrInvalidAttribute),
		errors.Is(err, scene.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// Scene Handlers

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.service.ListScenes(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(scenes),
		"scenes": scenes,
	})
}

func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sceneID := strings.TrimSuffix(mux.Vars(r)["id"], ".yaml")

	doc, err := s.service.GetScene(r.Context(), sceneID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSaveScene(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
		scene.Document
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	sceneID := req.ID
	if sceneID == "" {
		sceneID = req.Name
	}
	if sceneID == "" {
		respondError(w, http.StatusBadRequest, "Scene id is required")
		return
	}

	if err := s.service.SaveScene(r.Context(), sceneID, &req.Document); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sceneID, websocket.EventSceneSaved, req.Document)
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Scene saved successfully",
		"scene_id": sceneID,
	})
}

// Solve Handler

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	sceneID := mux.Vars(r)["id"]

	var opts service.SolveOptions
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if h := r.URL.Query().Get("heuristic"); h != "" {
		opts.Heuristic = h
	}

	info, err := s.service.Solve(r.Context(), sceneID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Broadcast to WebSocket clients
	if s.hub != nil {
		s.hub.BroadcastSolve(info)
	}

	// Compact server log for observability
	log.Printf("[SOLVE] scene=%s run=%s heuristic=%s grid=%dx%d found=%t cost=%d expanded=%d",
		info.SceneID, info.ID, info.Heuristic, info.Grid.Width, info.Grid.Height, info.Found, info.Cost, info.Expanded)

	respondJSON(w, http.StatusCreated, info)
}

// Run Handlers

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created" (default), "accessed", "cost"
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of runs to return
	sceneID := query.Get("scene")  // only runs of this scene

	if sortBy == "" {
		sortBy = "created"
	}
	if order == "" {
		order = "desc"
	}

	if sceneID != "" {
		filtered := make([]*service.RunInfo, 0, len(runs))
		for _, run := range runs {
			if strings.EqualFold(run.SceneID, sceneID) {
				filtered = append(filtered, run)
			}
		}
		runs = filtered
	}
	total := len(runs)

	sort.SliceStable(runs, func(i, j int) bool {
		if sortBy == "cost" {
			if order == "asc" {
				return runs[i].Cost < runs[j].Cost
			}
			return runs[i].Cost > runs[j].Cost
		}

		var ti, tj time.Time
		if sortBy == "accessed" {
			ti, tj = runs[i].LastAccessedAt, runs[j].LastAccessedAt
		} else {
			ti, tj = runs[i].CreatedAt, runs[j].CreatedAt
		}
		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	// Apply limit if specified
	limit := len(runs)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(runs) {
			limit = l
		}
	}
	runs = runs[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"total": total,
		"runs":  runs,
		"sort":  sortBy,
		"order": order,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	info, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	info, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := s.service.DeleteRun(r.Context(), runID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastRunDeleted(info.SceneID, info.ID)
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", runID),
	})
}

func (s *Server) handleRenderRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	format, err := render.ParseFormat(vars["format"])
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := service.RenderOptions{Format: format}
	if scaleStr := r.URL.Query().Get("scale"); scaleStr != "" {
		scale, err := strconv.ParseFloat(scaleStr, 64)
		if err != nil || scale <= 0 {
			respondError(w, http.StatusBadRequest, "scale must be a positive number")
			return
		}
		opts.CellPixels = scale
	}

	img, err := s.service.RenderRun(r.Context(), runID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

func (s *Server) handleDescribeCell(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	// The route pattern guarantees integers
	x, _ := strconv.Atoi(vars["x"])
	y, _ := strconv.Atoi(vars["y"])

	info, err := s.service.DescribeCell(r.Context(), runID, x, y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	sceneID := r.URL.Query().Get("scene")
	if sceneID != websocket.AllScenes {
		// Verify scene exists
		if _, err := s.service.GetScene(r.Context(), sceneID); err != nil {
			http.Error(w, "Invalid scene", http.StatusNotFound)
			return
		}
	}

	s.hub.ServeWS(w, r, sceneID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
