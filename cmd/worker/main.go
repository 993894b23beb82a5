package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bezero/internal/config"
	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/google"
	"bezero/internal/logging"
	"bezero/internal/models"
	"bezero/internal/notify"
	"bezero/internal/repository"
	"bezero/internal/service"
	"bezero/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

// Фоновый бинарник: разбирает очередь синхронизации с Google Sheets и
// гоняет планировщик статусов (билеты, просроченные заселения, сверка
// журнала баллов).
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	catalog, err := loadCatalog(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()
	db.SetCatalog(catalog)

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	sheetsService := initGoogleSheets(cfg, &logger)

	syncWorker := worker.NewSyncWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, cfg.Worker.Poll(), &logger)

	staySvc := buildStayService(cfg, db, redisClient, syncWorker, &logger)
	scheduler := worker.NewScheduler(db, staySvc, syncWorker, cfg.Worker.Sweep(), &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sheetsService != nil {
		go syncWorker.Start(ctx)
	} else {
		logger.Warn().Msg("google sheets not configured, sync queue is not consumed")
	}

	scheduler.Run(ctx)

	logger.Info().Msg("worker stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "worker-main").Logger()

	return cfg, logger, closer, nil
}

func loadCatalog(cfg *config.Config, logger *zerolog.Logger) (models.Catalog, error) {
	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = cfg.CatalogPath
	}
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", catalogPath).Msg("read catalog")
		return models.Catalog{}, err
	}

	var catalog models.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("catalog_path", catalogPath).Msg("parse catalog")
		return models.Catalog{}, err
	}
	return catalog, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}
	return redisClient
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.LedgerSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.StaysSpreadSheetID,
		cfg.Google.LedgerSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	return sheetsService
}

// buildStayService собирает сервис заселений с полными побочными
// эффектами: принудительный выезд чистит присутствие и завершает
// открытые диалоги гостя.
func buildStayService(cfg *config.Config, db *database.DB, redisClient *redis.Client, syncWorker *worker.SyncWorker, logger *zerolog.Logger) domain.StayService {
	memory := repository.NewMemoryStateRepository()
	var state domain.StateRepository = memory
	if redisClient != nil {
		state = repository.NewFailoverStateRepository(repository.NewRedisStateRepository(redisClient), memory, logger)
	}

	notifier := initNotifier(cfg, logger)
	eventBus := events.NewEventBus()

	staySvc := service.NewStayService(db, state, eventBus, syncWorker, notifier, logger)
	dmSvc := service.NewDMService(db, state, eventBus, cfg.Chat, logger)
	staySvc.SetDMService(dmSvc)
	return staySvc
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if !cfg.Telegram.Enabled {
		return notify.NopNotifier{}
	}
	bot, err := notify.NewBot(cfg.Telegram)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, manager notifications disabled")
		return notify.NopNotifier{}
	}
	return notify.NewTelegramNotifier(bot, logger)
}
