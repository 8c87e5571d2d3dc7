package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cinelog/cinelog-be/internal/api/handlers"
	"github.com/cinelog/cinelog-be/internal/auth"
	"github.com/cinelog/cinelog-be/internal/config"
	"github.com/cinelog/cinelog-be/internal/services"
	"github.com/cinelog/cinelog-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	cfg *config.Config,
	issuer *auth.TokenIssuer,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	movieService services.MovieServiceProvider,
	reviewService services.ReviewServiceProvider,
	eventService services.EventServiceProvider,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, cfg.IsProduction(), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	movieHandler := handlers.NewMovieHandler(movieService, hub, cfg.UploadPath)
	reviewHandler := handlers.NewReviewHandler(reviewService, hub)
	eventHandler := handlers.NewEventHandler(eventService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	requireAuth := auth.JWTMiddleware(issuer)

	// Uploaded poster images
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadPath))))

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Live activity feed
		r.Get("/ws", wsHandler.Serve)
		r.Get("/ws/movies/{id}", wsHandler.Serve)

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/refresh-token", userHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", userHandler.Logout)
				r.Post("/change-password", userHandler.ChangePassword)
				r.Get("/current", userHandler.GetCurrent)
				r.Patch("/update-account", userHandler.UpdateAccount)
				r.Get("/watch-history", userHandler.GetWatchHistory)
				r.Post("/watch-history/{movieId}", userHandler.AddWatchHistory)
			})
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", movieHandler.GetAll)
			r.Get("/{id}", movieHandler.Get)
			r.Get("/title/{title}", movieHandler.GetByTitle)
			r.Get("/genre/{genre}", movieHandler.GetByGenre)
			r.Get("/language/{language}", movieHandler.GetByLanguage)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", movieHandler.Create)
				r.Put("/{id}", movieHandler.Update)
				r.Delete("/{id}", movieHandler.Delete)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/create", reviewHandler.Create)
			r.Get("/movie/{movieId}", reviewHandler.GetByMovie)
			r.Get("/user/{userId}", reviewHandler.GetByUser)
			r.Get("/email/{email}", reviewHandler.GetByEmail)
			r.Get("/all", reviewHandler.GetAll)
			r.Get("/by-rating", reviewHandler.GetByRating)
			r.Delete("/{id}", reviewHandler.Delete)
		})

		r.Get("/events/recent", eventHandler.GetRecent)
	})

	return r
}
