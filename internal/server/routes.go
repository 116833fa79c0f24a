package server

import (
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/scythe504/triplay-backend/internal"
	"github.com/scythe504/triplay-backend/internal/game"
)

const qrSize = 256

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)
	if s.cfg.Verbose {
		r.Use(requestLogger)
	}

	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", s.CreateRoomHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/rooms/join", s.JoinRoomHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/rooms/{roomId}", s.GetRoomHandler).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{roomId}/start", s.StartGameHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/rooms/{roomId}/next-round", s.NextRoundHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/rooms/{roomId}/settings", s.UpdateSettingsHandler).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/rooms/{roomId}/play-again", s.PlayAgainHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/rooms/{roomId}/kick", s.KickHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/rooms/{roomId}/qr", s.RoomQRHandler).Methods(http.MethodGet)
	api.HandleFunc("/game-round", s.GetGameRoundHandler).Methods(http.MethodGet)
	api.HandleFunc("/game-round", s.SubmitActionHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/categories", s.CategoriesHandler).Methods(http.MethodGet)

	r.HandleFunc("/ws/{roomId}", s.WebSocketHandler)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	wildcard := len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// CORS Headers
		switch {
		case wildcard:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.cfg.AllowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

		// If it's a websocket upgrade, the hub checks the origin itself
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[request] %s %s (%s)", r.Method, r.URL.RequestURI(), time.Since(start))
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, time.Now().UnixMilli(), http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req game.CreateRoomRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	view, err := s.game.CreateRoom(r.Context(), req)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusCreated, view)
}

func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req game.JoinRoomRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	view, err := s.game.JoinRoom(r.Context(), req)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, view)
}

func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	view, err := s.game.GetRoom(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, view)
}

type adminRequest struct {
	UserID       string                `json:"userId"`
	TargetUserID string                `json:"targetUserId,omitempty"`
	Settings     internal.GameSettings `json:"settings"`
}

func (s *Server) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	view, err := s.game.StartGame(r.Context(), roomIDFrom(r), req.UserID)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, view)
}

func (s *Server) NextRoundHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	view, err := s.game.AdvanceRound(r.Context(), roomIDFrom(r), req.UserID)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, view)
}

func (s *Server) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	room, err := s.game.UpdateSettings(r.Context(), roomIDFrom(r), req.UserID, req.Settings)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, room)
}

func (s *Server) PlayAgainHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	room, err := s.game.ResetGame(r.Context(), roomIDFrom(r), req.UserID)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, room)
}

func (s *Server) KickHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	room, err := s.game.KickPlayer(r.Context(), roomIDFrom(r), req.UserID, req.TargetUserID)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, room)
}

// RoomQRHandler renders the join link of a room as a PNG.
func (s *Server) RoomQRHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	view, err := s.game.GetRoom(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		writeError(w, startTime, err)
		return
	}

	png, err := qrcode.Encode(s.cfg.JoinURL(view.Room.Id), qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, startTime, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		log.Printf("[RoomQRHandler] room=%s: write failed: %v", view.Room.Id, err)
	}
}

// =============================================================================
// GAME ROUNDS
// =============================================================================

func (s *Server) GetGameRoundHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	roomID := game.NormalizeRoomCode(r.URL.Query().Get("roomId"))
	view, err := s.game.GetCurrentRound(r.Context(), roomID)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, view)
}

type actionRequest struct {
	RoomID string              `json:"roomId"`
	UserID string              `json:"userId"`
	Type   internal.ActionType `json:"type"`
	Value  string              `json:"value"`
}

func (s *Server) SubmitActionHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, startTime, err)
		return
	}

	outcome, err := s.game.SubmitAction(r.Context(), game.NormalizeRoomCode(req.RoomID), req.UserID, req.Type, req.Value)
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, outcome)
}

func (s *Server) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	categories, err := s.game.ListCategories(r.Context())
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	writeResponse(w, startTime, http.StatusOK, map[string][]string{"categories": categories})
}

// =============================================================================
// WEBSOCKET
// =============================================================================

func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	view, err := s.game.GetRoom(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		writeError(w, startTime, err)
		return
	}
	s.hub.ServeRoom(w, r, view.Room.Id)
}

func roomIDFrom(r *http.Request) string {
	return game.NormalizeRoomCode(mux.Vars(r)["roomId"])
}
