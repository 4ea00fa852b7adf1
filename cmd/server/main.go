package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HelieAriane/Clanimo/internal/config"
	"github.com/HelieAriane/Clanimo/internal/database"
	"github.com/HelieAriane/Clanimo/internal/handlers"
	"github.com/HelieAriane/Clanimo/internal/logging"
	"github.com/HelieAriane/Clanimo/internal/middleware"
	"github.com/HelieAriane/Clanimo/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
	}

	logger.Info("Starting Clanimo server...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	verifier, err := services.NewIdentityVerifier(context.Background(), cfg.Auth)
	if err != nil {
		return fmt.Errorf("configuring identity verifier: %w", err)
	}
	if cfg.Auth.Stub {
		logger.Warn("Stub authentication enabled; do not use in production")
	}

	// Services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	friendService := services.NewFriendService(dbAdapter)
	meetupService := services.NewMeetupService(dbAdapter)
	deviceService := services.NewDeviceService(dbAdapter)

	gateway := services.NewGateway(cfg.Push, logger)
	pushService := services.NewPushService(gateway, deviceService, cfg.Push.Timeout, logger)
	pushQueue := services.NewPushQueue(cfg.Push.Workers, cfg.Push.QueueSize, cfg.Push.Timeout, logger)
	pushQueue.Start()
	defer pushQueue.Stop()

	emailProvider := services.NewEmailProvider(cfg.Email, logger)
	notificationService := services.NewNotificationService(
		dbAdapter, redisAdapter, userService, pushService, pushQueue,
		emailProvider, cfg.Notifications, logger,
	)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService, notificationService, logger)
	meetupHandler := handlers.NewMeetupHandler(meetupService, notificationService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, pushService)
	deviceHandler := handlers.NewDeviceHandler(deviceService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(verifier, userService, logger)
	requestLogger := middleware.NewRequestLogger(logger)
	rateLimiter := middleware.NewAPIRateLimiter(redisDB.Client)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Environment == "production")
	auth := authMiddleware.RequireAuth

	mux := http.NewServeMux()

	// Health endpoints (no auth)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Profile endpoints
	mux.Handle("GET /api/v1/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("GET /api/v1/users/{id}", auth(http.HandlerFunc(userHandler.Get)))

	// Friend endpoints
	mux.Handle("GET /api/v1/friends", auth(http.HandlerFunc(friendHandler.ListFriends)))
	mux.Handle("DELETE /api/v1/friends/{userId}", auth(http.HandlerFunc(friendHandler.RemoveFriend)))
	mux.Handle("POST /api/v1/friends/requests", auth(http.HandlerFunc(friendHandler.SendRequest)))
	mux.Handle("GET /api/v1/friends/requests/incoming", auth(http.HandlerFunc(friendHandler.ListIncomingRequests)))
	mux.Handle("GET /api/v1/friends/requests/outgoing", auth(http.HandlerFunc(friendHandler.ListOutgoingRequests)))
	mux.Handle("PUT /api/v1/friends/requests/{id}/accept", auth(http.HandlerFunc(friendHandler.AcceptRequest)))
	mux.Handle("PUT /api/v1/friends/requests/{id}/decline", auth(http.HandlerFunc(friendHandler.DeclineRequest)))
	mux.Handle("DELETE /api/v1/friends/requests/{id}", auth(http.HandlerFunc(friendHandler.CancelRequest)))

	// Meetup endpoints
	mux.Handle("POST /api/v1/meetups", auth(http.HandlerFunc(meetupHandler.Create)))
	mux.Handle("GET /api/v1/meetups", auth(http.HandlerFunc(meetupHandler.List)))
	mux.Handle("GET /api/v1/meetups/invites/incoming", auth(http.HandlerFunc(meetupHandler.ListIncomingInvites)))
	mux.Handle("GET /api/v1/meetups/invites/outgoing", auth(http.HandlerFunc(meetupHandler.ListOutgoingInvites)))
	mux.Handle("GET /api/v1/meetups/invites/count", auth(http.HandlerFunc(meetupHandler.CountInvites)))
	mux.Handle("PUT /api/v1/meetups/invites/{id}/accept", auth(http.HandlerFunc(meetupHandler.AcceptInvite)))
	mux.Handle("PUT /api/v1/meetups/invites/{id}/decline", auth(http.HandlerFunc(meetupHandler.DeclineInvite)))
	mux.Handle("DELETE /api/v1/meetups/invites/{id}", auth(http.HandlerFunc(meetupHandler.CancelInvite)))
	mux.Handle("GET /api/v1/meetups/{id}", auth(http.HandlerFunc(meetupHandler.Get)))
	mux.Handle("PUT /api/v1/meetups/{id}", auth(http.HandlerFunc(meetupHandler.Update)))
	mux.Handle("DELETE /api/v1/meetups/{id}", auth(http.HandlerFunc(meetupHandler.Delete)))
	mux.Handle("GET /api/v1/meetups/{id}/participants", auth(http.HandlerFunc(meetupHandler.Participants)))
	mux.Handle("POST /api/v1/meetups/{id}/invites", auth(http.HandlerFunc(meetupHandler.Invite)))
	mux.Handle("POST /api/v1/meetups/{id}/join", auth(http.HandlerFunc(meetupHandler.Join)))
	mux.Handle("POST /api/v1/meetups/{id}/leave", auth(http.HandlerFunc(meetupHandler.Leave)))

	// Notification endpoints
	mux.Handle("GET /api/v1/notifications", auth(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("GET /api/v1/notifications/unread-count", auth(http.HandlerFunc(notificationHandler.UnreadCount)))
	mux.Handle("PUT /api/v1/notifications/read", auth(http.HandlerFunc(notificationHandler.MarkManyRead)))
	mux.Handle("PUT /api/v1/notifications/read-all", auth(http.HandlerFunc(notificationHandler.MarkAllRead)))
	mux.Handle("PUT /api/v1/notifications/{id}/read", auth(http.HandlerFunc(notificationHandler.MarkRead)))
	mux.Handle("DELETE /api/v1/notifications/{id}", auth(http.HandlerFunc(notificationHandler.Delete)))
	mux.Handle("DELETE /api/v1/notifications", auth(http.HandlerFunc(notificationHandler.DeleteAll)))
	mux.Handle("POST /api/v1/notifications/test", auth(http.HandlerFunc(notificationHandler.SendTest)))

	// Device endpoints
	mux.Handle("POST /api/v1/devices", auth(http.HandlerFunc(deviceHandler.Register)))
	mux.Handle("GET /api/v1/devices", auth(http.HandlerFunc(deviceHandler.List)))
	mux.Handle("DELETE /api/v1/devices", auth(http.HandlerFunc(deviceHandler.UnregisterAll)))
	mux.Handle("DELETE /api/v1/devices/token", auth(http.HandlerFunc(deviceHandler.Unregister)))
	mux.Handle("DELETE /api/v1/devices/{id}", auth(http.HandlerFunc(deviceHandler.Delete)))

	// Middleware chain (outermost first)
	var handler http.Handler = mux
	handler = rateLimiter.Limit(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	// Periodic cleanup of expired notifications
	cleanupStop := make(chan struct{})
	if cfg.Notifications.TTLDays > 0 {
		go func() {
			ticker := time.NewTicker(6 * time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
					deleted, err := notificationService.CleanupExpired(ctx)
					cancel()
					if err != nil {
						logger.Error("notification cleanup failed", map[string]interface{}{
							"error": err.Error(),
						})
					} else if deleted > 0 {
						logger.Info("expired notifications removed", map[string]interface{}{
							"count": deleted,
						})
					}
				case <-cleanupStop:
					return
				}
			}
		}()
	}
	defer close(cleanupStop)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
