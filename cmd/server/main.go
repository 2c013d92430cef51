package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aahara/rescue-backend/internal/config"
	"github.com/aahara/rescue-backend/internal/db"
	httpHandlers "github.com/aahara/rescue-backend/internal/http/handlers"
	httpRouter "github.com/aahara/rescue-backend/internal/http/router"
	"github.com/aahara/rescue-backend/internal/logger"
	"github.com/aahara/rescue-backend/internal/repository"
	"github.com/aahara/rescue-backend/internal/service"
	"github.com/aahara/rescue-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	listingRepo := repository.NewListingRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	volunteerRepo := repository.NewVolunteerRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo, hub)
	dispatchService := service.NewDispatchService(
		orderRepo,
		volunteerRepo,
		notificationService,
		service.NewFallbackScheduler(),
		service.DispatchConfig{
			RadiusMeters:  cfg.DispatchRadiusMeters,
			MaxNotified:   cfg.DispatchMaxNotified,
			FallbackDelay: cfg.DispatchFallbackDelay,
		},
	)
	orderService := service.NewOrderService(
		orderRepo,
		listingRepo,
		notificationService,
		dispatchService,
		cfg.DeliveryTrustBonus,
		cfg.NotifyCancellingActor,
	)
	listingService := service.NewListingService(listingRepo)
	volunteerService := service.NewVolunteerService(volunteerRepo, notificationRepo)
	userService := service.NewUserService(userRepo)

	// Фоновое протухание объявлений с закончившимся окном самовывоза.
	listingService.StartExpirySweeper(ctx, cfg.ListingExpirySweepInterval)

	// HTTP хэндлеры.
	listingHandler := httpHandlers.NewListingHandler(listingService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	volunteerHandler := httpHandlers.NewVolunteerHandler(volunteerService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	userHandler := httpHandlers.NewUserHandler(userService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		listingHandler,
		orderHandler,
		volunteerHandler,
		notificationHandler,
		userHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
