package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"medassist/internal/api"
	"medassist/internal/config"
	"medassist/internal/db"
	"medassist/internal/enrollment"
	"medassist/internal/kafka"
	"medassist/internal/logging"
	"medassist/internal/push"
	"medassist/internal/reconcile"
	"medassist/internal/scheduler"
	"medassist/internal/state"
	"medassist/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	redisClient := state.NewClient(cfg.Redis.Addr, logger)
	defer redisClient.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dbConn.Ping(ctx); err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		if err := redisClient.Ping(ctx); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
	}

	snapshots := state.NewSnapshotStore(redisClient)
	dedup := state.NewDedupStore(redisClient)

	registry := ws.NewManager(logger)
	pusher := push.NewSender(dbConn, logger, cfg.Push.TTLSeconds)

	coordinator := reconcile.New(dbConn, snapshots, dedup, registry, pusher, logger, cfg.Notification.QueueSize)
	var wg sync.WaitGroup
	coordinator.Start(&wg)

	enrollments := enrollment.NewService(dbConn, logger)

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumer := kafka.NewConsumer(kafka.Config{
		Broker:  cfg.Kafka.Broker,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}, coordinator, dbConn, logger)
	consumer.Start(consumerCtx, &wg)
	logger.Infof("Kafka consumer initialized with topic: %s", cfg.Kafka.Topic)

	sched, err := scheduler.New(scheduler.Config{
		RefillScanSpec:   cfg.Scheduler.RefillScanSpec,
		ReEnrollmentSpec: cfg.Scheduler.ReEnrollmentSpec,
	}, dbConn, dbConn, pusher, logger)
	if err != nil {
		log.Fatalf("Scheduler setup failed: %v", err)
	}
	sched.Start()

	router := api.NewRouter(dbConn, coordinator, enrollments, registry, logger, cfg)
	server := &http.Server{Addr: cfg.API.Port, Handler: router}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API server shutdown failed: %v", err)
	}

	stopConsumer()
	if err := consumer.Close(); err != nil {
		logger.Errorf("Kafka consumer close failed: %v", err)
	}
	sched.Stop()
	coordinator.Stop()
	wg.Wait()
	logger.Info("Shutdown complete")
}
