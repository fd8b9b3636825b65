package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voltgrid-charging/service-reservation/internal/application"
	"github.com/voltgrid-charging/service-reservation/internal/config"
	"github.com/voltgrid-charging/service-reservation/internal/events"
	"github.com/voltgrid-charging/service-reservation/internal/handler"
	"github.com/voltgrid-charging/service-reservation/internal/repository"
	"github.com/voltgrid-charging/service-reservation/pkg/auth"
	"github.com/voltgrid-charging/service-reservation/pkg/database"
	"github.com/voltgrid-charging/service-reservation/pkg/health"
	"github.com/voltgrid-charging/service-reservation/pkg/kafka"
	"github.com/voltgrid-charging/service-reservation/pkg/keymutex"
	"github.com/voltgrid-charging/service-reservation/pkg/logger"
	"github.com/voltgrid-charging/service-reservation/pkg/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
	)

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.ChargerModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	store := repository.NewGormStore(db)
	locks := keymutex.New()

	reservationService := application.NewReservationService(store, locks, kafkaProducer, log)
	chargerService := application.NewChargerService(store, locks, kafkaProducer, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
	stationConsumer := events.NewStationEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		chargerService,
		log,
	)
	defer func() { _ = stationConsumer.Close() }()

	go func() {
		log.Info("starting station event consumer")
		if err := stationConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("station event consumer error", zap.Error(err))
		}
	}()

	bookingHandler := handler.NewBookingHandler(reservationService)
	chargerHandler := handler.NewChargerHandler(chargerService, reservationService)
	adminHandler := handler.NewAdminHandler(reservationService)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	healthHandler := health.NewHandler(db, "service-reservation")
	healthHandler.RegisterRoutes(router)

	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	chargerHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-reservation...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
