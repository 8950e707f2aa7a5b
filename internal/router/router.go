// Package router sets up all HTTP routes and middleware chains for the
// storefront API. Public catalog reads are open; writes are gated by role.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
)

// Limits holds the request rate limiters. A nil limiter disables limiting
// for its routes.
type Limits struct {
	API  *middleware.RateLimiter // every /api/v1 route
	Auth *middleware.RateLimiter // login and register
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionLoader, limits Limits, auth *handlers.Auth, catalog *handlers.Catalog, orders *handlers.Orders) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if limits.API != nil {
			r.Use(limits.API.Middleware)
		}
		r.Use(middleware.LoadSession(sessions))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if limits.Auth != nil {
					r.Use(limits.Auth.Middleware)
				}
				r.Post("/login", auth.Login)
				r.Post("/register", auth.Register)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Get("/my-profile", auth.MyProfile)
				r.Post("/logout", auth.Logout)
				r.Post("/2fa/setup", auth.TwoFASetup)
				r.Post("/2fa/enable", auth.TwoFAEnable)
			})
		})

		r.Route("/category", func(r chi.Router) {
			r.Get("/", catalog.Categories)
			r.Get("/{slug}/products", catalog.CategoryProducts)

			// Admin only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Post("/", catalog.CreateCategory)
				r.Put("/{id}", catalog.UpdateCategory)
				r.Delete("/{id}", catalog.DeleteCategory)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalog.Products)
			r.Get("/{slug}", catalog.Product)
			r.Get("/{slug}/reviews", catalog.Reviews)

			r.With(middleware.RequireAuth).Post("/{slug}/reviews", catalog.CreateReview)

			// Sellers and admins manage the catalog.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.RequireRole(models.RoleSeller, models.RoleAdmin))
				r.Post("/", catalog.CreateProduct)
				r.Put("/{slug}", catalog.UpdateProduct)
				r.Delete("/{slug}", catalog.DeleteProduct)
				r.Post("/{slug}/image", catalog.UploadProductImage)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", orders.List)
			r.Post("/", orders.Create)
			r.Get("/{id}", orders.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Put("/{id}", orders.Update)
				r.Delete("/{id}", orders.Delete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":false,"message":"Route not found."}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"status":false,"message":"Method not allowed."}`))
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
