package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinabrahms/padchess/internal/chess"
	"github.com/justinabrahms/padchess/internal/config"
	"github.com/justinabrahms/padchess/internal/table"
	"github.com/rs/zerolog/log"
)

// Table is the part of the table actor the web bridge drives
type Table interface {
	Input(ctx context.Context, in chess.Input) (table.Update, error)
	Promote(ctx context.Context, kind chess.Kind) (table.Update, error)
	Undo(ctx context.Context) (table.Update, error)
	NewGame(ctx context.Context) (table.Update, error)
	Snapshot(ctx context.Context) (chess.Snapshot, error)
	State(ctx context.Context) (table.Update, error)
}

type Service struct {
	table  Table
	config *config.Config
}

func NewService(table Table, config *config.Config) *Service {
	return &Service{
		table:  table,
		config: config,
	}
}

// NewRouter wires the API, the websocket endpoint and CORS
func NewRouter(s *Service, hub *Hub) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// Registered on the root router so a wrong method is answered with 405
	router.HandleFunc("/api/health", s.HealthHandler).Methods("GET")
	router.HandleFunc("/api/board", s.BoardHandler).Methods("GET")
	router.HandleFunc("/api/input", s.InputHandler).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/promote", s.PromoteHandler).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/undo", s.UndoHandler).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/new-game", s.NewGameHandler).Methods("POST", "OPTIONS")

	router.HandleFunc("/ws", s.WebSocketHandler(hub)).Methods("GET")
	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	health := map[string]string{
		"status": "ok",
	}
	if s.config != nil {
		health["addr"] = s.config.Addr()
	}
	_ = json.NewEncoder(w).Encode(health)
}

func (s *Service) BoardHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.table.Snapshot(r.Context())
	if err != nil {
		s.tableError(w, err, "snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshot)
}

type InputRequest struct {
	Rank    *int `json:"rank"`
	File    *int `json:"file"`
	Pressed bool `json:"pressed"`
}

func (s *Service) InputHandler(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rank == nil || req.File == nil {
		http.Error(w, "rank and file are required", http.StatusBadRequest)
		return
	}

	coord := chess.Coord{Rank: *req.Rank, File: *req.File}
	if !coord.InBounds() {
		http.Error(w, "Coordinate off the board", http.StatusBadRequest)
		return
	}

	update, err := s.table.Input(r.Context(), chess.Input{Coord: coord, Pressed: req.Pressed})
	if err != nil {
		s.tableError(w, err, "input")
		return
	}

	log.Debug().Str("cell", coord.String()).Bool("pressed", req.Pressed).Int("events", len(update.Events)).Msg("Input applied")
	writeUpdate(w, update)
}

type PromoteRequest struct {
	Choice string `json:"choice"`
}

func (s *Service) PromoteHandler(w http.ResponseWriter, r *http.Request) {
	var req PromoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	kind, ok := chess.ParseKind(req.Choice)
	if !ok {
		http.Error(w, "Unknown piece kind", http.StatusBadRequest)
		return
	}

	update, err := s.table.Promote(r.Context(), kind)
	if err != nil {
		s.tableError(w, err, "promote")
		return
	}
	writeUpdate(w, update)
}

func (s *Service) UndoHandler(w http.ResponseWriter, r *http.Request) {
	update, err := s.table.Undo(r.Context())
	if err != nil {
		s.tableError(w, err, "undo")
		return
	}
	writeUpdate(w, update)
}

func (s *Service) NewGameHandler(w http.ResponseWriter, r *http.Request) {
	update, err := s.table.NewGame(r.Context())
	if err != nil {
		s.tableError(w, err, "new game")
		return
	}
	log.Info().Str("update", update.ID).Msg("New game started")
	writeUpdate(w, update)
}

func (s *Service) tableError(w http.ResponseWriter, err error, request string) {
	if errors.Is(err, table.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Str("request", request).Msg("Table unavailable")
		http.Error(w, "Table unavailable", http.StatusServiceUnavailable)
		return
	}
	log.Error().Err(err).Str("request", request).Msg("Table request failed")
	http.Error(w, "Table request failed", http.StatusInternalServerError)
}

func writeUpdate(w http.ResponseWriter, update table.Update) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(newGameUpdate(update))
}
