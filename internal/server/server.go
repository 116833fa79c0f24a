package server

import (
	"net/http"
	"time"

	"github.com/scythe504/triplay-backend/internal/config"
	"github.com/scythe504/triplay-backend/internal/game"
	"github.com/scythe504/triplay-backend/internal/websocket"
)

type Server struct {
	cfg  *config.Config
	game *game.Service
	hub  *websocket.Hub
}

func NewServer(cfg *config.Config, svc *game.Service, hub *websocket.Hub) *Server {
	return &Server{cfg: cfg, game: svc, hub: hub}
}

// HTTPServer wires the routes into an *http.Server listening on cfg.Addr.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
