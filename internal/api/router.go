package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Carts    *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrderHandler
	Products *ProductHandler
	Admin    *AdminHandler
	Logger   zerolog.Logger
	Timeout  time.Duration
}

func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.Timeout))
	r.Use(middleware.Compress(5))
	r.Use(RequestLogger(deps.Logger))
	r.Use(SessionMiddleware)
	r.Use(AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", deps.Carts.GetCart)
			r.Delete("/", deps.Carts.ClearCart)
			r.Post("/items", deps.Carts.AddItem)
			r.Put("/items/{product_id}", deps.Carts.UpdateQuantity)
			r.Delete("/items/{product_id}", deps.Carts.RemoveItem)
			r.Put("/open", deps.Carts.SetOpen)
		})

		r.Post("/checkout", deps.Checkout.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", deps.Orders.PlaceOrder)
			r.With(RequireAuth).Get("/", deps.Orders.ListOrders)
			r.Get("/{order_id}", deps.Orders.GetOrder)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", deps.Products.ListProducts)
			r.Get("/featured", deps.Products.Featured)
			r.Get("/{product_id}", deps.Products.GetProduct)
			r.Get("/{product_id}/reviews", deps.Products.ListReviews)
			r.With(RequireAuth).Post("/{product_id}/reviews", deps.Products.AddReview)
		})

		r.Route("/admin/products", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/", deps.Admin.CreateProduct)
			r.Put("/{product_id}/price", deps.Admin.UpdatePrice)
			r.Put("/{product_id}/description", deps.Admin.UpdateDescription)
			r.Put("/{product_id}/availability", deps.Admin.SetAvailability)
			r.Post("/{product_id}/images", deps.Admin.AddImages)
			r.Delete("/{product_id}", deps.Admin.DeleteProduct)
		})
	})

	return r
}
