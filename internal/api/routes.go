package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the router for the JSON API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/chat", h.HandleChat)
	r.Post("/transfer", h.HandleTransfer)
	r.Post("/createWallet", h.HandleCreateWallet)
	r.Get("/listSafes", h.HandleListSafes)

	return r
}
