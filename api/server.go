package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	"github.com/wricardo/multiplayer-chess/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.SessionService
	presets service.PresetManager
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. presets and hub may be nil; the
// routes that need them then answer 501 and 503 respectively.
func NewServer(sessionService service.SessionService, presets service.PresetManager, hub *websocket.Hub) *Server {
	s := &Server{
		service: sessionService,
		presets: presets,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Game lifecycle
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}/accept", s.handleAcceptGame).Methods("POST")
	api.HandleFunc("/games/{id}/forfeit", s.handleForfeit).Methods("POST")

	// Play
	api.HandleFunc("/games/{id}/moves", s.handleMove).Methods("POST")
	api.HandleFunc("/games/{id}/moves", s.handleGetMoves).Methods("GET")
	api.HandleFunc("/games/{id}/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/games/{id}/board", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/games/{id}/legal-moves", s.handleLegalMoves).Methods("GET")

	// Chat
	api.HandleFunc("/games/{id}/chat", s.handleSendChat).Methods("POST")
	api.HandleFunc("/games/{id}/chat", s.handleGetChat).Methods("GET")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets", s.handleCreatePreset).Methods("POST")
	api.HandleFunc("/presets/{name}", s.handleGetPreset).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
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

// respondServiceError writes err with the HTTP status matching its code.
func respondServiceError(w http.ResponseWriter, err error) {
	code := multiplayer.CodeOf(err)
	respondJSON(w, statusFor(code), map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}

func statusFor(code multiplayer.Code) int {
	switch code {
	case multiplayer.CodeNotFound:
		return http.StatusNotFound
	case multiplayer.CodeInvalidArgument:
		return http.StatusBadRequest
	case multiplayer.CodeUnauthorized:
		return http.StatusForbidden
	case multiplayer.CodeIllegalMove:
		return http.StatusUnprocessableEntity
	case multiplayer.CodeDuplicateID, multiplayer.CodeAlreadyJoined,
		multiplayer.CodeNotYourTurn, multiplayer.CodeGameOver, multiplayer.CodeNotStarted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// playerRequest is the body of every per-player action.
type playerRequest struct {
	Player string `json:"player"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// Game Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Host   string `json:"host"`
		Preset string `json:"preset,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	game, err := s.service.CreateGame(r.Context(), req.Host, req.Preset)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, game)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGameSummaries(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(games)

	query := r.URL.Query()
	if state := query.Get("state"); state != "" {
		filtered := make([]*service.GameSummary, 0, len(games))
		for _, g := range games {
			if string(g.State) == state {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(games) {
			games = games[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"total": total,
		"games": games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.service.PullGameState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleAcceptGame(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	game, err := s.service.AcceptGame(r.Context(), mux.Vars(r)["id"], req.Player)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	game, err := s.service.Forfeit(r.Context(), mux.Vars(r)["id"], req.Player)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// Play Handlers

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string `json:"player"`
		Move   string `json:"move"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.PushMove(r.Context(), mux.Vars(r)["id"], req.Player, req.Move)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetMoves(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "asc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.PullMoves(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	game, err := s.service.PushUndo(r.Context(), mux.Vars(r)["id"], req.Player)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.service.PullBoardState(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, board)
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	moves, err := s.service.LegalMoves(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"moves":   moves,
	})
}

// Chat Handlers

func (s *Server) handleSendChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := s.service.SendChat(r.Context(), mux.Vars(r)["id"], req.Sender, req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	messages, err := s.service.PullChat(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id":  gameID,
		"messages": messages,
	})
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		respondError(w, http.StatusNotImplemented, "Presets are not configured")
		return
	}

	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")
	preset, err := s.presets.LoadPreset(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, preset)
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		respondError(w, http.StatusNotImplemented, "Presets are not configured")
		return
	}

	var req struct {
		ID string `json:"id"`
		service.Preset
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "Preset id is required")
		return
	}

	if err := s.presets.SavePreset(req.ID, &req.Preset); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to save preset: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Preset saved successfully",
		"preset_id": req.ID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "spectating is not enabled", http.StatusServiceUnavailable)
		return
	}

	gameID := r.URL.Query().Get("game")
	if gameID == "" {
		http.Error(w, "game parameter required", http.StatusBadRequest)
		return
	}

	game, err := s.service.PullGameState(r.Context(), gameID)
	if errors.Is(err, multiplayer.ErrNotFound) {
		http.Error(w, "Invalid game", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.hub.ServeWS(w, r, gameID, &websocket.Message{
		GameID:    gameID,
		Event:     websocket.EventSnapshot,
		Game:      game,
		Timestamp: game.UpdatedAt,
	})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
