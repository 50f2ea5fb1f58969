package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wolfden/internal/cache"
	"wolfden/internal/config"
	"wolfden/internal/repository"
	"wolfden/internal/service"
	"wolfden/internal/transport/rest"
	"wolfden/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx := context.Background()
	cfg := config.Load()

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

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Repositories
	nodeRepo := repository.NewNodeRepo(db)
	matchRepo := repository.NewMatchRepo(db)
	actionRepo := repository.NewActionRepo(db)

	// Caches
	liveness := cache.NewLivenessCache(rdb, time.Duration(cfg.HeartbeatTTLSec)*time.Second)
	ballots := cache.NewBallotCache(rdb)

	// Services
	authSvc := service.NewAuthService()
	engine := service.NewPhaseEngine(actionRepo, ballots, cfg)
	advanceSvc := service.NewAdvanceService(matchRepo, nodeRepo, actionRepo, engine,
		time.Duration(cfg.LeaseWindowSec)*time.Second)
	advanceSvc.SetBroadcaster(wsHub)
	hbSvc := service.NewHeartbeatService(matchRepo, liveness, advanceSvc)
	actionSvc := service.NewActionService(matchRepo, nodeRepo, actionRepo, ballots, advanceSvc)
	matchSvc := service.NewMatchService(matchRepo, nodeRepo)

	// Scheduler (the one tick loop driving every match's timeouts)
	scheduler := service.NewScheduler(matchRepo, nodeRepo, advanceSvc, hbSvc,
		time.Duration(cfg.TickIntervalMS)*time.Millisecond)
	schedCtx, stopSched := context.WithCancel(ctx)
	go scheduler.Run(schedCtx)

	// Router
	container := &rest.Container{
		AuthService:      authSvc,
		MatchService:     matchSvc,
		ActionService:    actionSvc,
		HeartbeatService: hbSvc,
		AdvanceService:   advanceSvc,
		WSHub:            wsHub,
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/matches")
		log.Println("  GET  /v1/matches/{id}")
		log.Println("  GET  /v1/matches/{id}/token")
		log.Println("  POST /v1/heartbeat")
		log.Println("  POST /v1/player-action")
		log.Println("  POST /v1/advance")
		log.Println("  WS   /v1/ws/matches/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopSched()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
