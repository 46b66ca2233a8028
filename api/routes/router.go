package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/averyross/bookhaven-backend/api/controllers"
	"github.com/averyross/bookhaven-backend/api/middleware"
	authsvc "github.com/averyross/bookhaven-backend/internal/auth"
	"github.com/averyross/bookhaven-backend/internal/cart"
	"github.com/averyross/bookhaven-backend/internal/catalog"
	checkoutsvc "github.com/averyross/bookhaven-backend/internal/checkout"
	"github.com/averyross/bookhaven-backend/internal/orders"
	"github.com/averyross/bookhaven-backend/pkg/auth/session"
	"github.com/averyross/bookhaven-backend/pkg/config"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/averyross/bookhaven-backend/pkg/redis"
)

// Deps bundles everything the router hands to controllers and middleware.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redis.Client
	Sessions *session.Manager
	Health   controllers.HealthDeps

	Catalog  catalog.Service
	Auth     authsvc.Service
	Carts    *cart.Registry
	Checkout checkoutsvc.Service
	Orders   *orders.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Health))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", controllers.BooksList(deps.Catalog, logg))
		r.Get("/featured", controllers.BooksFeatured(deps.Catalog, logg))
		r.Get("/categories", controllers.BooksCategories(deps.Catalog, logg))
		r.Get("/{bookID}", controllers.BooksGet(deps.Catalog, logg))
	})

	r.Route("/api/v1/authors", func(r chi.Router) {
		r.Get("/", controllers.AuthorsList(deps.Catalog, logg))
		r.Get("/{authorID}", controllers.AuthorsGet(deps.Catalog, logg))
	})

	r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
		Get("/api/v1/orders", controllers.OrdersList(deps.Orders, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, logg),
		).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, deps.Carts, logg))
	})

	// Cart, wishlist and checkout work for both anonymous devices and
	// authenticated users; the Identity middleware picks the backend.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, deps.Sessions, logg))

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Catalog, logg))
			r.Put("/items/{bookID}", controllers.CartUpdateItem(deps.Carts, logg))
			r.Delete("/items/{bookID}", controllers.CartRemoveItem(deps.Carts, logg))
		})

		r.Route("/api/v1/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistGet(deps.Carts, logg))
			r.Post("/", controllers.WishlistAdd(deps.Carts, deps.Catalog, logg))
			r.Post("/toggle", controllers.WishlistToggle(deps.Carts, deps.Catalog, logg))
			r.Delete("/{bookID}", controllers.WishlistRemove(deps.Carts, logg))
		})

		r.With(middleware.Idempotency(deps.Redis, logg)).
			Post("/api/v1/checkout", controllers.Checkout(deps.Checkout, logg))
	})

	return r
}
