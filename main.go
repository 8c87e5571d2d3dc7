package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/cinelog/cinelog-be/internal/api"
	"github.com/cinelog/cinelog-be/internal/auth"
	"github.com/cinelog/cinelog-be/internal/config"
	"github.com/cinelog/cinelog-be/internal/database"
	"github.com/cinelog/cinelog-be/internal/logger"
	"github.com/cinelog/cinelog-be/internal/monitoring"
	"github.com/cinelog/cinelog-be/internal/services"
	"github.com/cinelog/cinelog-be/internal/websocket"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.IsProduction())

	// Ensure the directory for uploaded posters exists
	if err := os.MkdirAll(cfg.UploadPath, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up auth services
	hasher := auth.NewHasher(cfg.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	limiter := auth.NewLoginLimiter(cfg.LoginRatePerMin, cfg.LoginBurst)

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, hasher, issuer, limiter, eventService)
	movieService := services.NewMovieService(db, eventService)
	reviewService := services.NewReviewService(db, eventService)

	// Set up and run the background rating aggregate updater
	ratingUpdater := monitoring.NewRatingUpdater(movieService, cfg.RatingRefreshSpec)
	if err := ratingUpdater.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start rating updater")
	}

	// Set up router
	router := api.NewRouter(cfg, issuer, hub, userService, movieService, reviewService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ratingUpdater.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
