package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dm-messenger/backend/internal/api"
	"dm-messenger/backend/internal/models"
	"dm-messenger/backend/internal/presence"
	"dm-messenger/backend/internal/service"
	"dm-messenger/backend/internal/ws"
	"dm-messenger/backend/pkg/config"
	"dm-messenger/backend/pkg/health"
	"dm-messenger/backend/pkg/jwt"
	"dm-messenger/backend/pkg/logger"
	"dm-messenger/backend/pkg/metrics"
	"dm-messenger/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	cfg := config.New()

	log := logger.New(logger.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format == "json",
	})

	db, err := setupDatabase()
	if err != nil {
		log.Error("failed to setup database", "error", err.Error())
		os.Exit(1)
	}

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Services
	userService := service.NewUserService(db, jwtService)
	messageService := service.NewMessageService(db)

	// Presence cache is optional; without Redis the database flag alone
	// serves reads.
	var redisClient *redis.Client
	var presenceCache *presence.Cache
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		presenceCache = presence.NewCache(redisClient, cfg.Redis.PresenceTTL)
	}

	// Realtime gateway
	ws.AllowOrigins(cfg.Security.AllowedOrigins)
	hub := ws.NewHub(log)
	presenceCoord := ws.NewPresence(hub, userService, cacheOrNil(presenceCache), log)
	relay := ws.NewRelay(hub, userService, messageService, messageService, log)
	gateway := ws.NewGateway(hub, presenceCoord, relay, jwtService, log)

	// Health checks
	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterCheck("database", func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if redisClient != nil {
		checker.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		})
	}
	checker.Start()

	// HTTP router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(logger.Middleware(log))

	router.GET("/ws", gateway.ServeWS)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authHandler := api.NewAuthHandler(userService, log)
	userController := api.NewUserController(userService, presenceCache, log)
	messageController := api.NewMessageController(messageService, log)
	aiController := api.NewAIController(cfg.Services.AIServiceURL, log)

	limiter := middleware.NewRateLimiter(log, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        func(c *gin.Context) string { return c.ClientIP() },
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", gin.WrapF(checker.HTTPHandler()))

		auth := apiGroup.Group("/auth")
		auth.Use(limiter.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", api.AuthMiddleware(jwtService), authHandler.Me)
		}

		protected := apiGroup.Group("")
		protected.Use(api.AuthMiddleware(jwtService))
		{
			protected.GET("/users", userController.List)
			protected.GET("/messages", messageController.History)
			protected.POST("/ai/chat", limiter.Middleware(), aiController.Chat)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err.Error())
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", "error", err.Error())
	}
	log.Info("server shutdown complete")
}

// cacheOrNil keeps the presence coordinator's interface field nil when no
// cache is configured; a typed nil pointer would pass its nil check.
func cacheOrNil(cache *presence.Cache) ws.PresenceCache {
	if cache == nil {
		return nil
	}
	return cache
}

// setupDatabase initializes the database connection and runs migrations
func setupDatabase() (*gorm.DB, error) {
	db, err := config.NewDB()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Conversation{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
