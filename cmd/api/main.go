// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/reunite-hq/lostfound-platform/internal/chat"
	"github.com/reunite-hq/lostfound-platform/internal/config"
	"github.com/reunite-hq/lostfound-platform/internal/handler"
	"github.com/reunite-hq/lostfound-platform/internal/middleware"
	"github.com/reunite-hq/lostfound-platform/internal/model"
	natsclient "github.com/reunite-hq/lostfound-platform/internal/nats"
	"github.com/reunite-hq/lostfound-platform/internal/service"
	"github.com/reunite-hq/lostfound-platform/internal/storage"
	"github.com/reunite-hq/lostfound-platform/internal/store"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
	"github.com/reunite-hq/lostfound-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "lostfound-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS and bootstrap the message stream
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}
	liveChannel := natsclient.NewLiveChannel(natsClient)

	// Connect to Redis
	redisClient, err := store.Connect(ctx, store.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Error("failed to connect to redis", zap.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	conversationStore := store.NewConversationStore(redisClient)
	itemStore := store.NewItemStore(redisClient)
	userStore := store.NewUserStore(redisClient)

	// Object storage is optional; without it image uploads are disabled.
	var images service.ImageStorage
	if cfg.MinioEndpoint != "" {
		imageStorage, err := storage.New(storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			log.Error("failed to create object storage client", zap.Error(err))
			os.Exit(1)
		}
		if err := imageStorage.EnsureBucket(ctx); err != nil {
			log.Error("failed to ensure image bucket", zap.Error(err))
			os.Exit(1)
		}
		images = imageStorage
	}

	// Initialize services
	userSvc := service.NewUserService(userStore, cfg.JWTSecret, cfg.JWTExpiration, log)
	itemSvc := service.NewItemService(itemStore, images, log)
	conversationSvc := service.NewConversationService(conversationStore, userStore, itemStore, log)
	messageSvc := service.NewMessageService(streamManager, conversationSvc, log)

	subscribe := func(ctx context.Context, userID string, fn func(model.Message)) (chat.Subscription, error) {
		return liveChannel.Subscribe(ctx, userID, fn)
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient, redisClient)
	authHandler := handler.NewAuthHandler(userSvc, log)
	itemHandler := handler.NewItemHandler(itemSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, itemSvc, log)
	streamHandler := handler.NewStreamHandler(subscribe, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Get("/users/{id}", authHandler.GetUser)

			r.Route("/items", func(r chi.Router) {
				r.Post("/", itemHandler.Create)
				r.Get("/", itemHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", itemHandler.Get)
					r.Put("/", itemHandler.Update)
					r.Delete("/", itemHandler.Delete)
					r.Post("/image", itemHandler.AttachImage)
				})
			})

			r.Get("/conversations", conversationHandler.List)
			r.Get("/messages", messageHandler.List)
			r.Post("/messages", messageHandler.Send)
			r.Get("/stream", streamHandler.Stream)
		})
	})

	var root http.Handler = r
	if cfg.TracingEnabled {
		root = otelhttp.NewHandler(r, "lostfound-platform")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      root,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
