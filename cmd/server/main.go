package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/questlog-app/questlog-backend/internal/config"
	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/logging"
	"github.com/questlog-app/questlog-backend/internal/middleware"
	"github.com/questlog-app/questlog-backend/internal/routes"
	"github.com/questlog-app/questlog-backend/internal/services"
)

func main() {
	// Load .env if present; production gets env from the platform
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Init(cfg.Environment)
	if envErr != nil {
		log.Info().Msg("No .env file found")
	}

	// Both signing secrets are mandatory; refusing to start beats issuing
	// tokens signed with an empty key.
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("SECRET_KEY is not defined in the environment variables")
	}
	if cfg.RefreshJWTSecret == "" {
		log.Fatal().Msg("REFRESH_SECRET_KEY is not defined in the environment variables")
	}

	services.InitTokens(cfg.JWTSecret, cfg.RefreshJWTSecret)

	// Connect to PostgreSQL
	log.Info().Msg("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.DisconnectPostgres()

	// Connect to Redis (optional; rate limiting is skipped without it)
	if cfg.RedisURI != "" {
		log.Info().Msg("Connecting to Redis...")
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer database.DisconnectRedis()
	} else {
		log.Warn().Msg("REDIS_URI not set; per-IP rate limiting disabled")
	}

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Info().Msg("Production security enabled (security headers, per-IP + login rate limiting)")
	}
	if database.RedisClient != nil {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("questlog backend running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received: closing HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	services.CloseAllConnections()
	log.Info().Msg("Server stopped")
}
