package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/battlebees-backend/internal/hub"
	"github.com/DoyleJ11/battlebees-backend/internal/ws"
)

type Options struct {
	WS     ws.Options
	Logger *zap.Logger
}

func SetupRoutes(h *hub.Hub, g *ws.Gateway, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.WS.Logger == nil {
		opts.WS.Logger = opts.Logger
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/rooms", CreateRoomCode(h, opts.Logger))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, g, opts.WS))
	r.Get("/debug/rooms", DebugRooms(h, opts.Logger))
	return r
}
