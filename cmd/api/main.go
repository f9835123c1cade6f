package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"account-service/internal/config"
	"account-service/internal/db"
	apihttp "account-service/internal/http"
	"account-service/internal/oauth"
	"account-service/internal/repository"
	"account-service/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	var (
		loginLimiter service.LoginRateLimiter
		sessionStore service.SessionStore
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxRedis, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxRedis).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory sessions", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginRateWindow(), cfg.LoginRateMax)
			sessionStore = service.NewRedisSessionStore(redisClient)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewLoginRateLimiter(cfg.LoginRateWindow(), cfg.LoginRateMax)
	}

	googleProvider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	if !cfg.GoogleEnabled() {
		logger.Warn("google oauth not configured")
	}

	userRepo := repository.NewPgUserRepository(pool)
	userSvc := service.NewUserService(logger, userRepo, service.NewPasswordHasher(cfg.BcryptCost), loginLimiter, cfg.GoogleClientSecret+cfg.SessionSecret)
	sessionSvc := service.NewSessionService(cfg.SessionSecret, cfg.SessionTTL(), sessionStore)
	authSvc := service.NewAuthService(logger, userSvc, sessionSvc)

	cookieCfg := apihttp.CookieConfig{
		Name:     cfg.SessionCookieName,
		Secure:   cfg.SessionCookieSecure,
		SameSite: cfg.SameSite(),
		TTL:      cfg.SessionTTL(),
	}
	redirects := apihttp.RedirectConfig{
		OAuthSuccess: cfg.OAuthSuccessRedirect,
		OAuthFailure: cfg.OAuthFailureRedirect,
		Logout:       cfg.LogoutRedirect,
	}

	userHandler := apihttp.NewUserHandler(logger, authSvc, userSvc, cookieCfg)
	authHandler := apihttp.NewAuthHandler(logger, authSvc, googleProvider, cookieCfg, redirects)
	router := apihttp.NewRouter(logger, apihttp.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StateSecret:    cfg.SessionSecret,
		Cookie:         cookieCfg,
	}, authSvc, userHandler, authHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
