package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/solaropoly/game/board"
	"github.com/wricardo/mcp-training/solaropoly/game/layout"
	"github.com/wricardo/mcp-training/solaropoly/game/service"
	"github.com/wricardo/mcp-training/solaropoly/internal/logging"
	"github.com/wricardo/mcp-training/solaropoly/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.BoardService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *slog.Logger
}

// NewServer creates a new API server. hub may be nil, in which case nothing is broadcast.
func NewServer(boardService service.BoardService, hub *websocket.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		service: boardService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	// Layouts
	api.HandleFunc("/layouts", s.handleListLayouts).Methods("GET")
	api.HandleFunc("/layouts/{name}", s.handleGetLayout).Methods("GET")

	// Board management
	api.HandleFunc("/boards", s.handleCreateBoard).Methods("POST")
	api.HandleFunc("/boards", s.handleListBoards).Methods("GET")
	api.HandleFunc("/boards/{id}", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/boards/{id}", s.handleDeleteBoard).Methods("DELETE")

	// Board mutation
	api.HandleFunc("/boards/{id}/squares", s.handleAppendSquares).Methods("POST")
	api.HandleFunc("/boards/{id}/groups", s.handleAppendGroups).Methods("POST")

	// Board queries
	api.HandleFunc("/boards/{id}/resolve", s.handleResolvePosition).Methods("POST")
	api.HandleFunc("/boards/{id}/squares/{square}/position", s.handlePositionOf).Methods("GET")
	api.HandleFunc("/boards/{id}/squares/{square}/group", s.handleGroupOf).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests attaches the server logger to the request context and logs each request
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With("method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
		logger.Debug("request served", "duration", time.Since(start))
	})
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

// respondServiceError maps service and board errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrBoardNotFound), errors.Is(err, layout.ErrLayoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrInvalidBoardSize),
		errors.Is(err, board.ErrInvalidGroupReference),
		errors.Is(err, board.ErrInvalidSquare),
		errors.Is(err, layout.ErrInvalidLayout):
		return http.StatusUnprocessableEntity
	case errors.Is(err, board.ErrEmptyBoard), errors.Is(err, board.ErrEmptyGroupSet):
		return http.StatusConflict
	case errors.Is(err, service.ErrBoardAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// broadcast pushes a board event and a fresh snapshot to websocket clients
func (s *Server) broadcast(eventType string, info *service.BoardInfo, message string) {
	if s.hub == nil || info == nil {
		return
	}
	s.hub.BroadcastEvent(info.ID, eventType, &service.BoardEvent{
		Type:      eventType,
		BoardID:   info.ID,
		Message:   message,
		Timestamp: time.Now(),
	})
	s.hub.BroadcastToBoard(info.ID, info)
}

// Layout Handlers

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	layouts, err := s.service.ListLayouts(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, layouts)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	l, err := s.service.LoadLayout(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, l)
}

// Board Handlers

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LayoutID string `json:"layout_id,omitempty"`
	}

	// An empty body selects the default layout
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateBoard(r.Context(), req.LayoutID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast("created", info, fmt.Sprintf("Board %s created from layout %s", info.ID, info.LayoutID))
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := s.service.ListBoards(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of boards to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(boards, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = boards[i].CreatedAt, boards[j].CreatedAt
		} else {
			ti, tj = boards[i].LastAccessedAt, boards[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(boards)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(boards) {
			boards = boards[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(boards),
		"total":  total,
		"boards": boards,
		"sort":   sortBy,
		"order":  order,
	})
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	info, err := s.service.GetBoard(r.Context(), boardID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	if err := s.service.DeleteBoard(r.Context(), boardID); err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(boardID, "deleted", &service.BoardEvent{
			Type:      "deleted",
			BoardID:   boardID,
			Message:   fmt.Sprintf("Board %s deleted", boardID),
			Timestamp: time.Now(),
		})
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Board %s deleted", boardID),
	})
}

func (s *Server) handleAppendSquares(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	var req struct {
		Squares []layout.SquareSpec `json:"squares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.AppendSquares(r.Context(), boardID, req.Squares)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast("squares_appended", info, fmt.Sprintf("%d squares appended, board size %d", len(req.Squares), info.Size))
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleAppendGroups(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	var req struct {
		Groups []layout.GroupSpec `json:"groups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.AppendGroups(r.Context(), boardID, req.Groups)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast("groups_appended", info, fmt.Sprintf("%d groups appended, board has %d groups", len(req.Groups), len(info.Groups)))
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleResolvePosition(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	var req struct {
		Start int  `json:"start"`
		Steps *int `json:"steps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Steps == nil {
		respondError(w, http.StatusBadRequest, "steps is required")
		return
	}

	result, err := s.service.ResolvePosition(r.Context(), boardID, req.Start, *req.Steps)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(boardID, "position_resolved", result)
	}

	logging.FromContext(r.Context()).Info("position resolved",
		"board", boardID, "start", req.Start, "steps", *req.Steps,
		"square", result.Square.ID, "laps", result.LapsCompleted)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePositionOf(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	result, err := s.service.PositionOf(r.Context(), vars["id"], vars["square"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGroupOf(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	result, err := s.service.GroupOf(r.Context(), vars["id"], vars["square"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	boardID := strings.TrimSpace(r.URL.Query().Get("board"))
	if boardID == "" {
		respondError(w, http.StatusBadRequest, "board parameter required")
		return
	}
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket updates are disabled")
		return
	}

	// Verify board exists
	if _, err := s.service.GetBoard(r.Context(), boardID); err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.ServeWS(w, r, boardID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
