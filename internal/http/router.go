package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkraev/storefront/internal/service"
)

// NewRouter wires every handler behind the API routes.
func NewRouter(
	carts *service.CartService,
	catalog *service.CatalogService,
	checkout *service.CheckoutService,
	users *service.UserService,
) http.Handler {
	cartHandler := NewCartHandler(carts)
	catalogHandler := NewCatalogHandler(catalog)
	checkoutHandler := NewCheckoutHandler(checkout)
	userHandler := NewUserHandler(users)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", cartHandler.CreateCart)
			r.Post("/merge", cartHandler.MergeCart)
			r.Route("/{cart_id}", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Get("/total", cartHandler.GetTotal)
				r.Post("/items", cartHandler.AddItem)
				r.Delete("/items", cartHandler.ClearCart)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", catalogHandler.CreateProduct)
			r.Get("/", catalogHandler.ListProducts)
			r.Route("/{product_id}", func(r chi.Router) {
				r.Get("/", catalogHandler.GetProduct)
				r.Put("/", catalogHandler.UpdateProduct)
				r.Delete("/", catalogHandler.DeactivateProduct)
				r.Get("/availability", catalogHandler.CheckAvailability)
				r.Post("/restock", catalogHandler.Restock)
				r.Put("/stock", catalogHandler.SetStock)
				r.Put("/category", catalogHandler.AssignCategory)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", catalogHandler.CreateCategory)
			r.Get("/", catalogHandler.ListRootCategories)
			r.Get("/slug/{slug}", catalogHandler.GetCategoryBySlug)
			r.Route("/{category_id}", func(r chi.Router) {
				r.Get("/", catalogHandler.GetCategory)
				r.Get("/subcategories", catalogHandler.ListSubcategories)
				r.Get("/products", catalogHandler.ProductsByCategory)
			})
		})

		r.Post("/checkout", checkoutHandler.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", checkoutHandler.ListOrdersByDateRange)
			r.Get("/number/{number}", checkoutHandler.GetOrderByNumber)
			r.Route("/{order_id}", func(r chi.Router) {
				r.Get("/", checkoutHandler.GetOrder)
				r.Post("/payments", checkoutHandler.RecordPayment)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Register)
			r.Route("/{user_id}", func(r chi.Router) {
				r.Get("/", userHandler.GetUser)
				r.Put("/", userHandler.UpdateProfile)
				r.Delete("/", userHandler.DeactivateUser)
				r.Get("/orders", checkoutHandler.ListOrders)
				r.Post("/addresses", userHandler.AddAddress)
				r.Get("/addresses", userHandler.ListAddresses)
				r.Route("/addresses/{address_id}", func(r chi.Router) {
					r.Put("/", userHandler.UpdateAddress)
					r.Delete("/", userHandler.DeleteAddress)
					r.Put("/default", userHandler.SetDefaultAddress)
				})
			})
		})
	})

	return r
}
