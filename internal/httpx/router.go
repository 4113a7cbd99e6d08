package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the presentation API for the order core.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceRequests)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", handler.GetSession)
		r.Post("/", handler.StartService)
		r.Post("/login", handler.Login)
		r.Post("/logout", handler.Logout)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)
		r.Post("/items", handler.AddCartItem)
		r.Patch("/items/{kind}/{productID}", handler.UpdateCartItem)
		r.Delete("/items/{kind}/{productID}", handler.RemoveCartItem)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.FinalizeOrder)
		r.Get("/", handler.ListOrders)
		r.Get("/{id}", handler.GetOrder)
		r.Post("/{id}/preparation", handler.StartPreparation)
		r.Post("/{id}/delivered", handler.MarkDelivered)
		r.Post("/{id}/cancel", handler.CancelOrder)
	})

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", handler.ListTables)
		r.Post("/{table}/finalize", handler.FinalizeTable)
		r.Post("/{table}/resume", handler.ResumeTable)
	})

	return r
}
