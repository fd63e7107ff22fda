package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(h *Handler, log *slog.Logger, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logging(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", UserHeader, "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Group(func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		api.Route("/participants", func(rp chi.Router) {
			rp.Post("/", h.RegisterParticipant)
			rp.Get("/", h.ListParticipants)
		})
		api.Post("/status", h.Heartbeat)

		api.Route("/messages", func(rm chi.Router) {
			rm.Post("/", h.SendMessage)
			rm.Get("/", h.ListMessages)
			rm.Get("/search", h.SearchMessages)
			rm.Put("/{id}", h.UpdateMessage)
			rm.Delete("/{id}", h.DeleteMessage)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
