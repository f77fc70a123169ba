package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/class_scheduler/internal/app"
	"github.com/Freeeeeet/class_scheduler/internal/config"
	"github.com/Freeeeeet/class_scheduler/internal/controller"
	"github.com/Freeeeeet/class_scheduler/internal/repository"
	"github.com/Freeeeeet/class_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/class_scheduler/internal/service"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting class scheduler bot",
		zap.String("environment", cfg.Environment),
		zap.Bool("memory_store", cfg.UseMemoryStore()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	// Сервисы
	userService := service.NewUserService(store, logger)
	classService := service.NewClassService(store, logger)
	agendaService := service.NewAgendaService(store, cfg.AgendaMaxDays, cfg.NameCacheTTL, logger)

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	botController := controller.NewBotController(b, userService, classService, agendaService, cfg.AgendaDefaultDays, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	// Фоновая очистка прошедших окон доступности
	scheduler := app.NewScheduler(classService, cfg.PurgeInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if err := botController.Start(ctx); err != nil {
		logger.Error("Bot stopped with error", zap.Error(err))
	}

	logger.Info("Shutting down")
}

// openStore открывает PostgreSQL и применяет миграции, а без DB_DSN работает в памяти
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	if cfg.UseMemoryStore() {
		logger.Warn("DB_DSN is not set, data is kept in memory and lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewStore(pool), pool.Close, nil
}
