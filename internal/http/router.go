package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the full API surface. Identity is required on everything
// except the health probe.
func NewRouter(carts *CartHandler, orders *OrdersHandler, requestTimeout time.Duration, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-User-Email", "X-User-Staff"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.GetCart)
			r.Post("/", carts.AddItem)
			r.Delete("/", carts.ClearCart)
			r.Delete("/{service_id}", carts.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.ListOrders)
			r.Post("/checkout", orders.Checkout)
			r.Get("/{order_id}", orders.GetOrder)
			r.Post("/{order_id}/pay", orders.Pay)
			r.Patch("/{order_id}/update_status", orders.UpdateStatus)
		})
	})

	return r
}
