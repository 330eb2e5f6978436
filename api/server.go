package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/cleaningrobot/logging"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/config"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/runs"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/service"
	"github.com/wricardo/mcp-training/cleaningrobot/transport/websocket"
)

// maxBodySize bounds uploaded input documents
const maxBodySize = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.RobotService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(robotService service.RobotService, hub *websocket.Hub) *Server {
	s := &Server{
		service: robotService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	api := s.router.PathPrefix("/api").Subrouter()

	// Runs
	api.HandleFunc("/runs", s.handleCreateRun).Methods("POST")
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")

	// Scenarios
	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios/{name}", s.handleGetScenario).Methods("GET")
	api.HandleFunc("/scenarios/{name}", s.handleSaveScenario).Methods("POST")
	api.HandleFunc("/scenarios/{name}/run", s.handleRunScenario).Methods("POST")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

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
	respondJSON(w, status, map[string]interface{}{"error": message, "code": status})
}

// respondServiceError maps service errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, document.ErrInvalidInput),
		errors.Is(err, config.ErrInvalidScenario),
		errors.Is(err, service.ErrNilDocument):
		status = http.StatusBadRequest
	case errors.Is(err, config.ErrScenarioNotFound),
		errors.Is(err, runs.ErrRunNotFound):
		status = http.StatusNotFound
	}
	respondError(w, status, err.Error())
}

// readDocument decodes the request body as an input document. YAML is used
// when the Content-Type asks for it, JSON otherwise.
func readDocument(r *http.Request) (*document.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodySize)
	}
	return document.Decode(data, requestFormat(r))
}

func requestFormat(r *http.Request) document.Format {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return document.FormatYAML
	default:
		return document.FormatJSON
	}
}

// Run Handlers

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Simulate(r.Context(), doc)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(result)
	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	all, err := s.service.ListRuns(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	scenario := query.Get("scenario")

	// Listings carry no step traces; fetch a single run for those
	summaries := make([]*service.RunResult, 0, len(all))
	for _, run := range all {
		if scenario != "" && run.Scenario != scenario {
			continue
		}
		summary := *run
		summary.Steps = nil
		summaries = append(summaries, &summary)
	}
	total := len(summaries)

	// Most recent first
	for i, j := 0, len(summaries)-1; i < j; i, j = i+1, j-1 {
		summaries[i], summaries[j] = summaries[j], summaries[i]
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(summaries) {
			summaries = summaries[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(summaries),
		"total": total,
		"runs":  summaries,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if r.URL.Query().Get("steps") == "false" {
		summary := *run
		summary.Steps = nil
		run = &summary
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), runID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", runID),
	})
}

// Scenario Handlers

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.service.ListScenarios(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if scenarios == nil {
		scenarios = []*service.ScenarioInfo{}
	}

	respondJSON(w, http.StatusOK, scenarios)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	doc, err := s.service.GetScenario(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSaveScenario(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	doc, err := readDocument(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.SaveScenario(r.Context(), name, doc); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Scenario saved successfully",
		"scenario_id": name,
	})
}

func (s *Server) handleRunScenario(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	result, err := s.service.RunScenario(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(result)
	respondJSON(w, http.StatusCreated, result)
}

// broadcast sends a finished run to WebSocket subscribers
func (s *Server) broadcast(result *service.RunResult) {
	if s.hub != nil {
		s.hub.BroadcastRun(result.Scenario, result)
	}
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live feed disabled", http.StatusServiceUnavailable)
		return
	}

	scenario := r.URL.Query().Get("scenario")
	if scenario != "" && scenario != websocket.AllTopics {
		// Verify scenario exists
		if _, err := s.service.GetScenario(r.Context(), scenario); err != nil {
			http.Error(w, "Unknown scenario", http.StatusNotFound)
			return
		}
	}

	s.hub.ServeWS(w, r, scenario)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger logs one line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The WebSocket upgrade needs the raw writer
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.Debug().
			Add(
				logging.Component("api"),
				logging.Str("method", r.Method),
				logging.Str("path", r.URL.Path),
				logging.Count("status", rec.status),
				logging.Duration(time.Since(start)),
			).
			Msg("request")
	})
}
