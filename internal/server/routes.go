package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP surface: room creation, uploads, health,
// metrics, and the websocket endpoint.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestMetrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.Logger))
	r.Use(chimw.Recoverer)

	// Clients connect from arbitrary origins; the room password is the
	// only gate.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/rooms", s.handleCreateRoom)
	r.Post("/upload", s.handleUpload)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.Cfg.UploadDir))))

	r.Get("/ws", s.handleWS)

	return r
}
