package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mkuleshov/gigmarket-backend/internal/config"
	"github.com/mkuleshov/gigmarket-backend/internal/db"
	httpHandlers "github.com/mkuleshov/gigmarket-backend/internal/http/handlers"
	httpRouter "github.com/mkuleshov/gigmarket-backend/internal/http/router"
	"github.com/mkuleshov/gigmarket-backend/internal/logger"
	"github.com/mkuleshov/gigmarket-backend/internal/repository"
	"github.com/mkuleshov/gigmarket-backend/internal/service"
	"github.com/mkuleshov/gigmarket-backend/internal/storage"
	"github.com/mkuleshov/gigmarket-backend/internal/stripe"
	"github.com/mkuleshov/gigmarket-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsDir); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaRoot, cfg.MaxUploadMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	stripeClient := stripe.NewClient(cfg.StripeBaseURL, cfg.StripeSecretKey)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	gigRepo := repository.NewGigRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	transactionRepo := repository.NewTransactionRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Вебсокеты и уведомления.
	notificationService := service.NewNotificationService(notificationRepo)
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	profileService := service.NewProfileService(userRepo)
	gigService := service.NewGigService(gigRepo)
	orderService := service.NewOrderService(orderRepo, gigRepo, hub)
	paymentService := service.NewPaymentService(transactionRepo, orderRepo, stripeClient, hub, cfg.Currency)
	disputeService := service.NewDisputeService(disputeRepo, orderRepo, userRepo, hub)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, hub)
	messageService := service.NewMessageService(messageRepo, orderRepo, hub)
	mediaService := service.NewMediaService(mediaRepo, mediaStorage)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(profileService)
	gigHandler := httpHandlers.NewGigHandler(gigService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService, profileService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	messageHandler := httpHandlers.NewMessageHandler(messageService)
	mediaHandler := httpHandlers.NewMediaHandler(mediaService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		profileHandler,
		gigHandler,
		orderHandler,
		paymentHandler,
		disputeHandler,
		reviewHandler,
		notificationHandler,
		messageHandler,
		mediaHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
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

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.Port)

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
