package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/baloot-market/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware маркетплейса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Metrics(h.metrics))

	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/commodities", func(r chi.Router) {
			r.Get("/", h.ListCommodities)
			r.Post("/search", h.SearchCommodities)
			r.Get("/{id}", h.GetCommodity)
			r.Post("/{id}/rate", h.RateCommodity)
			r.Get("/{id}/comment", h.GetComments)
			r.Post("/{id}/comment", h.AddComment)
			r.Get("/{id}/suggested", h.SuggestedCommodities)
		})

		r.Post("/comment/{id}/{vote}", h.VoteComment)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.CreateUser)
			r.Get("/{username}", h.GetUser)
			r.Post("/{username}/credit", h.AddCredit)
			r.Post("/{username}/withdraw", h.WithdrawCredit)
			r.Post("/{username}/buy-list/add", h.AddToBuyList)
			r.Post("/{username}/buy-list/remove", h.RemoveFromBuyList)
			r.Post("/{username}/buy-list/purchase", h.Purchase)
		})

		r.Get("/providers/{id}", h.GetProvider)
		r.Get("/providers/{id}/commodities", h.ProviderCommodities)

		r.Route("/fraud", func(r chi.Router) {
			r.Post("/orders", h.EvaluateOrder)
			r.Get("/customers/{id}/average", h.CustomerAverage)
			r.Get("/prices/{price}/quantity", h.PriceQuantity)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
