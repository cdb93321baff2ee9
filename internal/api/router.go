package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rcharbonnier/allscans/internal/api/response"
	"github.com/rcharbonnier/allscans/internal/version"
)

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "ok", "version": version.GetVersion()})
	})

	// Public auth endpoints.
	s.router.Post("/register", s.authHandler.Register)
	s.router.Post("/login", s.authHandler.Login)
	s.router.Post("/logout", s.authHandler.Logout)

	// Everything else requires a session.
	s.router.Group(func(r chi.Router) {
		r.Use(s.authService.Middleware)

		r.Get("/me", s.authHandler.Me)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.userCardsHandler.Search)
			r.Get("/search", s.userCardsHandler.Search)
			r.Post("/batch", s.cardsHandler.BatchCards)
			r.Get("/{cardID}", s.cardsHandler.GetCard)
			r.Delete("/{cardID}", s.cardsHandler.DeleteCard)
		})

		r.Route("/usercards", func(r chi.Router) {
			r.Post("/", s.userCardsHandler.AddCard)
			r.Post("/import", s.userCardsHandler.Import)
			r.Get("/import/progress", s.userCardsHandler.ImportProgress)
			r.Put("/{cardID}", s.userCardsHandler.UpdateCount)
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/", s.itemsHandler.Create)
			r.Get("/", s.itemsHandler.List)
			r.Get("/all_lists_and_decks", s.itemsHandler.ListDecks)
			r.Get("/{itemID}", s.itemsHandler.Get)
			r.Put("/{itemID}", s.itemsHandler.Update)
			r.Delete("/{itemID}", s.itemsHandler.Delete)
			r.Post("/{itemID}/add_card", s.itemsHandler.AddCard)
			r.Post("/{itemID}/remove_card", s.itemsHandler.RemoveCard)
			r.Post("/{itemID}/duplicate", s.itemsHandler.Duplicate)
			r.Post("/{itemID}/balance", s.itemsHandler.Balance)
		})
	})
}
