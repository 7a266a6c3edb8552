package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/config"
	"storefront-service/internal/api"
	"storefront-service/internal/broker"
	"storefront-service/internal/catalog"
	"storefront-service/internal/credentials"
	"storefront-service/internal/menusync"
	"storefront-service/internal/reconciler"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/shops"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront service")

	tp, err := util.InitTracer("storefront-service", cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	directory, err := shops.LoadFromFile(cfg.Shops.File)
	if err != nil {
		log.Fatalf("Failed to load shop directory: %v", err)
	}
	log.Printf("Shop directory loaded: %d shops", len(directory.List()))

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMenu)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	credentialBroker := credentials.NewBroker(
		cfg.Credential.SquareEndpoint,
		cfg.Credential.CloverEndpoint,
		cfg.Credential.TTL,
	)

	squareAPI := os.Getenv("SQUARE_API_BASE")
	if squareAPI == "" {
		squareAPI = "https://connect.squareup.com"
	}
	cloverAPI := os.Getenv("CLOVER_API_BASE")
	if cloverAPI == "" {
		cloverAPI = "https://api.clover.com"
	}

	adapters := catalog.NewFactory(
		catalog.NewSquareAdapter(squareAPI, credentialBroker),
		catalog.NewCloverAdapter(cloverAPI, credentialBroker),
	)

	diskCache, err := menusync.NewDiskCache(cfg.Cache.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize menu disk cache: %v", err)
	}

	syncer := menusync.NewSyncer(adapters, diskCache, eventPublisher, cfg.Cache.MenuTTL)
	orderReconciler := reconciler.NewReconciler(db, adapters, redisClient, eventPublisher, cfg.Reconcile.LockTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	menuConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicMenu, cfg.Kafka.ConsumerGroup)
	menuWorker := worker.NewMenuWorker(menuConsumer, syncer, directory)
	go func() {
		if err := menuWorker.Start(workerCtx); err != nil {
			log.Printf("Menu worker error: %v", err)
		}
	}()

	reconcileWorker := worker.NewReconcileWorker(orderReconciler, cfg.Reconcile.Interval)
	go func() {
		if err := reconcileWorker.Start(workerCtx); err != nil {
			log.Printf("Reconcile worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(syncer, orderReconciler, db, directory)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	menuWorker.Stop()

	log.Println("Server exited")
}
