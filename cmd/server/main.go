package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classbattle/config"
	"classbattle/internal/cache"
	"classbattle/internal/service"
	"classbattle/internal/store"
	"classbattle/internal/transport/rest"
	"classbattle/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	log.Printf("Heartbeat interval: %s, stale threshold: %s, poll interval: %s",
		cfg.HeartbeatInterval, cfg.StaleThreshold, cfg.PollInterval)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.Database)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize stores
	sessionRepo := store.NewSessionRepo(db)
	summaryRepo := store.NewSummaryRepo(db)
	classroomRepo := store.NewClassroomRepo(db)
	adminRepo := store.NewAdminRepo(db)

	// Initialize caches
	presenceCache := cache.NewPresenceCache(rdb)
	classroomCache := cache.NewClassroomCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret)
	superHosts := service.NewSuperHosts(cfg.SuperHostIDs, cfg.SuperHostEmails, cfg.SuperHostNames)
	authority := service.NewHostAuthority(adminRepo, superHosts)
	presenceSvc := service.NewPresenceService(presenceCache, cfg.StaleThreshold)
	combat := service.NewRosterStats(sessionRepo)
	finalizer := service.NewStatsFinalizer(combat, summaryRepo)
	sessionSvc := service.NewSessionService(sessionRepo, authority, finalizer)
	membershipSvc := service.NewMembershipService(sessionRepo, presenceSvc, combat)
	discoverySvc := service.NewDiscoveryService(sessionRepo, classroomRepo, classroomCache, cfg.PollInterval)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)
	membershipSvc.SetBroadcaster(wsHub)
	presenceSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:       authSvc,
		SessionService:    sessionSvc,
		MembershipService: membershipSvc,
		PresenceService:   presenceSvc,
		DiscoveryService:  discoverySvc,
		WSHub:             wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST /v1/sessions")
		log.Println("  GET  /v1/sessions/discover")
		log.Println("  POST /v1/sessions/{id}/join")
		log.Println("  POST /v1/sessions/{id}/end")
		log.Println("  POST /v1/sessions/{id}/heartbeat")
		log.Println("  WS   /v1/ws/sessions/{id}/host")
		log.Println("  WS   /v1/ws/sessions/{id}/participant")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
