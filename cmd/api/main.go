package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v81"

	"github.com/petit-ilot/petit-ilot-api/internal/config"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/auth"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/bonus"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/credit"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/payment"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/promo"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/purchase"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/resource"
	"github.com/petit-ilot/petit-ilot-api/internal/domain/user"
	"github.com/petit-ilot/petit-ilot-api/internal/middleware"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/database"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/jwt"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/response"
	"github.com/petit-ilot/petit-ilot-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Petit Ilot API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, promo rate limiting disabled")
		redisClient = nil
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	stripe.Key = cfg.StripeSecretKey

	// ---------- Storage ----------
	var store storage.Storage
	if cfg.StorageEndpoint != "" {
		s3Store, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        cfg.StorageEndpoint,
			Region:          cfg.StorageRegion,
			AccessKeyID:     cfg.StorageAccessKeyID,
			AccessKeySecret: cfg.StorageAccessKeySecret,
			BucketName:      cfg.StorageBucketName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 storage")
		}
		store = s3Store
	} else {
		log.Warn().Msg("No storage endpoint configured, serving files from local disk")
		store = storage.NewLocalStorage(cfg.StorageLocalPath, cfg.StorageLocalBaseURL)
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	tokenRepo := auth.NewRefreshTokenRepository(db)
	creditRepo := credit.NewRepository(db)
	promoRepo := promo.NewRepository(db)
	resourceRepo := resource.NewRepository(db)
	purchaseRepo := purchase.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	bonusRepo := bonus.NewRepository(db)

	// ---------- Services ----------
	creditService := credit.NewService(creditRepo)
	promoService := promo.NewService(promoRepo, creditRepo)
	purchaseService := purchase.NewService(purchaseRepo, resourceRepo, creditRepo, store)
	paymentService := payment.NewService(paymentRepo, creditRepo, cfg.FrontendURL, cfg.StripeCurrency)
	authService := auth.NewService(userRepo, tokenRepo, creditRepo, bonusRepo, jwtService)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	creditHandler := credit.NewHandler(creditService)
	promoHandler := promo.NewHandler(promoService)
	resourceHandler := resource.NewHandler(resourceRepo)
	purchaseHandler := purchase.NewHandler(purchaseService)
	paymentHandler := payment.NewHandler(paymentService, userRepo, cfg.StripeWebhookSecret)
	bonusHandler := bonus.NewHandler(bonusRepo)

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireAdmin()
	creatorMiddleware := middleware.RequireCreator()
	promoRateLimit := middleware.RateLimit(redisClient, "promo_redeem", cfg.PromoRateLimit, cfg.PromoRateWindow)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/credits", creditHandler.Routes(authMiddleware))
		r.Mount("/promo-codes", promoHandler.Routes(authMiddleware, promoRateLimit))
		r.Mount("/resources", resourceHandler.Routes(authMiddleware, creatorMiddleware))
		r.Mount("/purchases", purchaseHandler.Routes(authMiddleware))
		r.Mount("/payments", paymentHandler.Routes(authMiddleware))

		r.With(authMiddleware).Get("/resources/{id}/download", purchaseHandler.Download)
	})

	r.Post("/webhooks/stripe", paymentHandler.StripeWebhook)

	r.Route("/api/admin", func(r chi.Router) {
		r.Mount("/credits", creditHandler.AdminRoutes(authMiddleware, adminMiddleware))
		r.Mount("/promo-codes", promoHandler.AdminRoutes(authMiddleware, adminMiddleware))
		r.Mount("/bonus-config", bonusHandler.AdminRoutes(authMiddleware, adminMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
