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

	"grocery-service/config"
	"grocery-service/internal/api"
	"grocery-service/internal/broker"
	"grocery-service/internal/notify"
	"grocery-service/internal/redisclient"
	"grocery-service/internal/reservation"
	"grocery-service/internal/service"
	"grocery-service/internal/store"
	"grocery-service/internal/util"
	"grocery-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting grocery service")

	tp, err := util.InitTracer("grocery-service", cfg.Server.Env, cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	if err := db.EnsureDefaultSlots(context.Background(),
		cfg.Business.SlotStartHour, cfg.Business.SlotEndHour); err != nil {
		log.Fatalf("Failed to seed delivery slots: %v", err)
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	eventProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents)
	defer eventProducer.Close()

	notifyProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications)
	defer notifyProducer.Close()
	log.Println("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(eventProducer)
	notifier := notify.NewKafkaNotifier(notifyProducer)

	ledger := reservation.NewLedger(
		time.Duration(cfg.Business.HoldTTLSeconds)*time.Second, nil)

	catalogService := service.NewCatalogService(db, ledger)
	cartService := service.NewCartService(db, db, ledger)
	slotService := service.NewSlotService(db)
	draftService := service.NewDraftService(db, db)
	orderService := service.NewOrderService(service.OrderServiceOpts{
		Orders:                db,
		Carts:                 db,
		Catalog:               db,
		Slots:                 db,
		Ledger:                ledger,
		Notifier:              notifier,
		Events:                eventPublisher,
		Cache:                 redisClient,
		OperatorID:            cfg.Business.OperatorID,
		DeductStockOnDelivery: cfg.Business.DeductStockOnDelivery,
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	statusConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrderEvents, cfg.Kafka.ConsumerGroup)
	statusWorker := worker.NewStatusCacheWorker(statusConsumer, redisClient)
	go func() {
		if err := statusWorker.Start(workerCtx); err != nil {
			log.Printf("Status cache worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(catalogService, cartService, orderService, slotService, draftService)
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
	statusWorker.Stop()

	log.Println("Server exited")
}
