package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/danicaoo/musicShop/internal/auth"
	"github.com/danicaoo/musicShop/internal/metrics"
	"github.com/danicaoo/musicShop/internal/model"
)

// Options configure the router.
type Options struct {
	DB     *sql.DB
	Tokens *auth.Tokens

	// CORSOrigins are the browser origins allowed to call the API.
	CORSOrigins []string
	// LoginRequests per LoginWindow are allowed per client address.
	// Zero disables the login rate limit.
	LoginRequests int
	LoginWindow   time.Duration
	// Metrics mounts GET /metrics.
	Metrics bool
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	if opts.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	authHandler := &AuthHandler{DB: opts.DB, Tokens: opts.Tokens}
	usersHandler := &UsersHandler{DB: opts.DB}
	musiciansHandler := &MusiciansHandler{DB: opts.DB}
	ensemblesHandler := &EnsemblesHandler{DB: opts.DB}
	compositionsHandler := &CompositionsHandler{DB: opts.DB}
	albumsHandler := &AlbumsHandler{DB: opts.DB}
	inventoryHandler := &InventoryHandler{DB: opts.DB}
	salesHandler := &SalesHandler{DB: opts.DB}
	serviceHandler := &ServiceHandler{DB: opts.DB}

	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	r.Route("/api", func(r chi.Router) {
		r.Use(MetricsMiddleware)

		// Public.
		r.Get("/", serviceHandler.Index)
		r.Get("/health", serviceHandler.Health)

		login := http.Handler(http.HandlerFunc(authHandler.Login))
		if opts.LoginRequests > 0 {
			login = httprate.LimitByIP(opts.LoginRequests, opts.LoginWindow)(login)
		}
		r.Method(http.MethodPost, "/auth/login", login)

		// Everything else requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(opts.Tokens, opts.DB))

			r.Post("/auth/logout", authHandler.Logout)
			r.Put("/auth/password", authHandler.ChangePassword)

			// Users (admin only).
			r.Route("/users", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", usersHandler.List)
				r.Post("/", usersHandler.Create)
				r.Get("/{id}", usersHandler.Get)
				r.Put("/{id}", usersHandler.Update)
				r.Put("/{id}/password", usersHandler.ResetPassword)
				r.Delete("/{id}", usersHandler.Delete)
			})

			// Musicians: read (all roles), write (manager+).
			r.Route("/musicians", func(r chi.Router) {
				r.Get("/", musiciansHandler.List)
				r.Get("/search", musiciansHandler.Search)
				r.Get("/{id}", musiciansHandler.Get)
				r.With(requireManager).Post("/", musiciansHandler.Create)
				r.With(requireManager).Put("/{id}", musiciansHandler.Update)
			})

			// Ensembles: read (all roles), write (manager+).
			r.Route("/ensembles", func(r chi.Router) {
				r.Get("/", ensemblesHandler.List)
				r.Get("/search", ensemblesHandler.Search)
				r.Get("/{id}", ensemblesHandler.Get)
				r.Get("/{id}/albums", ensemblesHandler.Albums)
				r.Get("/{id}/compositions-count", ensemblesHandler.CompositionsCount)
				r.With(requireManager).Post("/", ensemblesHandler.Create)
			})

			// Compositions: read (all roles), write (manager+).
			r.Route("/compositions", func(r chi.Router) {
				r.Get("/", compositionsHandler.List)
				r.Get("/{id}", compositionsHandler.Get)
				r.With(requireManager).Post("/", compositionsHandler.Create)
				r.With(requireManager).Put("/{id}", compositionsHandler.Update)
				r.With(requireManager).Delete("/{id}", compositionsHandler.Delete)
			})

			// Recordings: read (all roles), write (manager+).
			r.Route("/recordings", func(r chi.Router) {
				r.Get("/", compositionsHandler.ListRecordings)
				r.Get("/search", compositionsHandler.SearchRecordings)
				r.With(requireManager).Post("/", compositionsHandler.CreateRecording)
			})

			// Albums: read (all roles), write (manager+).
			r.Route("/albums", func(r chi.Router) {
				r.Get("/", albumsHandler.List)
				r.Get("/search", albumsHandler.Search)
				r.Get("/catalog-number/check", albumsHandler.CheckCatalogNumber)
				r.Get("/{id}", albumsHandler.Get)
				r.Get("/{id}/cover", albumsHandler.GetCover)
				r.With(requireManager).Post("/", albumsHandler.Create)
				r.With(requireManager).Put("/{id}", albumsHandler.Update)
				r.With(requireManager).Put("/{id}/cover", albumsHandler.UploadCover)
				r.With(requireManager).Put("/inventory/{id}", inventoryHandler.Adjust)
			})

			// Inventory (all roles).
			r.Get("/inventories", inventoryHandler.List)
			r.Get("/top-selling", inventoryHandler.TopSelling)

			// Sales: recording and reports (all roles), rollover (admin).
			r.Route("/sales", func(r chi.Router) {
				r.Post("/", salesHandler.Create)
				r.Get("/", salesHandler.List)
				r.Get("/report", salesHandler.Report)
				r.Post("/update-last-year", salesHandler.Rollover)
				r.With(requireAdmin).Get("/reset-events", salesHandler.ResetEvents)
			})
		})
	})

	return r
}
