package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"vttserver/internal/config"
	"vttserver/internal/relay"
	"vttserver/internal/store"
	"vttserver/internal/wshub"
)

// Server wires the HTTP surface to the room synchronization core. The
// store is injected; the server never constructs its own persistence.
type Server struct {
	Cfg    config.Config
	Store  store.Store
	Hub    *wshub.Hub
	Relay  *relay.Relay
	Logger zerolog.Logger
}

// New builds a server over the given store.
func New(cfg config.Config, st store.Store, logger zerolog.Logger) *Server {
	hub := wshub.NewHub()
	return &Server{
		Cfg:    cfg,
		Store:  st,
		Hub:    hub,
		Relay:  relay.New(st, hub, logger),
		Logger: logger.With().Str("component", "server").Logger(),
	}
}

// JSON sends a JSON response with the given status code.
func (s *Server) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (s *Server) Error(w http.ResponseWriter, status int, message string) {
	s.JSON(w, status, map[string]string{"error": message})
}
