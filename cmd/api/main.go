package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bezero/internal/api"
	"bezero/internal/chat"
	"bezero/internal/config"
	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/google"
	"bezero/internal/logging"
	"bezero/internal/metrics"
	"bezero/internal/models"
	"bezero/internal/notify"
	"bezero/internal/repository"
	"bezero/internal/service"
	"bezero/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

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

	db, err := initDatabase(cfg, catalog, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	state := initStateRepository(redisClient, &logger)
	sheetsService := initGoogleSheets(cfg, &logger)

	// Воркер здесь только кладёт задачи в очередь; разбирает их
	// отдельный бинарник cmd/worker.
	syncWorker := worker.NewSyncWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, cfg.Worker.Poll(), &logger)

	notifier := initNotifier(cfg, &logger)
	eventBus := events.NewEventBus()
	hub := chat.NewHub(&logger)

	services := buildServices(cfg, db, state, eventBus, syncWorker, notifier, hub, &logger)

	server := api.NewServer(cfg.API, services, hub, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startBackups(ctx, cfg, &logger)
	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, server, cfg, &logger)
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
	logger := baseLogger.With().Str("component", "api-main").Logger()

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

	logger.Info().
		Int("cities", len(catalog.Cities)).
		Int("guest_houses", len(catalog.GuestHouses)).
		Int("cards", len(catalog.Cards)).
		Msg("catalog loaded")
	return catalog, nil
}

func initDatabase(cfg *config.Config, catalog models.Catalog, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	db.SetCatalog(catalog)
	return db, nil
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

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initStateRepository выбирает, где жить эфемерному состоянию: redis с
// памятью как запасным вариантом, либо только память.
func initStateRepository(redisClient *redis.Client, logger *zerolog.Logger) domain.StateRepository {
	memory := repository.NewMemoryStateRepository()
	if redisClient == nil {
		logger.Warn().Msg("presence and dialog state kept in memory only")
		return memory
	}
	return repository.NewFailoverStateRepository(repository.NewRedisStateRepository(redisClient), memory, logger)
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

	logger.Info().Msg("google sheets connected")
	return sheetsService
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

func buildServices(
	cfg *config.Config,
	db *database.DB,
	state domain.StateRepository,
	eventBus *events.EventBus,
	syncWorker *worker.SyncWorker,
	notifier domain.Notifier,
	hub *chat.Hub,
	logger *zerolog.Logger,
) api.Services {
	userSvc := service.NewUserService(db, eventBus, cfg, logger)
	ticketSvc := service.NewTicketService(db, eventBus, syncWorker, 0, logger)
	staySvc := service.NewStayService(db, state, eventBus, syncWorker, notifier, logger)
	chatSvc := service.NewChatService(db, state, cfg.Chat, logger)
	dmSvc := service.NewDMService(db, state, eventBus, cfg.Chat, logger)
	pointSvc := service.NewPointService(db, logger)
	diarySvc := service.NewDiaryService(db, eventBus, cfg.Points, logger)

	staySvc.SetDMService(dmSvc)
	chatSvc.SetBroadcaster(hub)
	dmSvc.SetBroadcaster(hub)

	return api.Services{
		Users:   userSvc,
		Tickets: ticketSvc,
		Stays:   staySvc,
		Chats:   chatSvc,
		DMs:     dmSvc,
		Points:  pointSvc,
		Diaries: diarySvc,
	}
}

func startBackups(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Backup.Enabled {
		return
	}
	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
	go backup.Start(ctx)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, server *api.Server, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("port", cfg.API.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
