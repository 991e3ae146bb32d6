package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/app"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/clock"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/config"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/events"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/repository"
	"github.com/rosswilliamsdev/guitar-strategies-app-sub000/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting booking engine",
		zap.String("environment", cfg.Environment),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	// Применяем миграции до старта сервисов
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	accessRepo := repository.NewAccessRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	recurringRepo := repository.NewRecurringSlotRepository(pool)

	// Сервисы
	clk := clock.System()
	publisher := events.NewLogPublisher(logger)

	availabilityService := service.NewAvailabilityService(availabilityRepo, settingsRepo, lessonRepo, clk, logger)
	bookingService := service.NewBookingService(pool, userRepo, accessRepo, settingsRepo, lessonRepo, availabilityService, publisher, clk, logger)
	recurringService := service.NewRecurringService(pool, bookingService, lessonRepo, recurringRepo, publisher, clk, logger)

	// Фоновая задача продления постоянных бронь
	scheduler := app.NewScheduler(recurringService, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("Booking engine started")

	// Ждём сигнала остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
}
