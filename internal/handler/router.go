package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/triptalk/backend/internal/handler/chat"
	healthhandler "github.com/triptalk/backend/internal/handler/health"
	ttshandler "github.com/triptalk/backend/internal/handler/tts"
	middlewarePkg "github.com/triptalk/backend/internal/middleware"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatH *chathandler.Handler, ttsH *ttshandler.Handler, healthH *healthhandler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		chatH.RegisterRoutes(api)
		ttsH.RegisterRoutes(api)
		healthH.RegisterRoutes(api)
	})

	return r
}
