package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/config"
	"github.com/rlsguard/stats-service/internal/database"
	"github.com/rlsguard/stats-service/internal/delivery/httpd"
	"github.com/rlsguard/stats-service/internal/repository"
	"github.com/rlsguard/stats-service/internal/service"
	"github.com/rlsguard/stats-service/internal/worker"
	"github.com/rlsguard/stats-service/internal/worker/queue"
)

type App struct {
	server           *http.Server
	logger           zerolog.Logger
	config           *config.Config
	store            repository.DataStore
	archive          repository.ArchiveRepository
	statisticsWorker worker.StatisticsWorker
	rabbitMQRepo     repository.RabbitMQRepository
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := newDataStore(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		logger: log,
		config: cfg,
		store:  store,
	}

	a.archive = newArchive(ctx, cfg.Archive, log)

	var publisher service.EventPublisher
	var consumer queue.RabbitMQConsumer
	if cfg.RabbitMQ.Enabled {
		a.rabbitMQRepo, publisher, consumer = newMessaging(cfg.RabbitMQ, log)
	}

	statisticsService := service.NewStatisticsService(
		store,
		a.archive,
		publisher,
		log,
		service.StatisticsConfig{
			ArchiveTimeout: cfg.Archive.Timeout,
		},
	)

	var workerStats httpd.WorkerStatsProvider
	if consumer != nil {
		a.statisticsWorker = worker.NewStatisticsWorker(
			worker.NewWorkerPool(cfg.Statistics.MaxWorkers, log),
			consumer,
			queue.NewMessageHandler(statisticsService, log),
			cfg.Statistics.Timeout,
			log,
		)
		workerStats = a.statisticsWorker
	}

	handler := httpd.NewHandler(statisticsService, store, a.archive, workerStats, log)
	router := httpd.NewRouter(handler, httpd.RouterConfig{
		CORS:           cfg.CORS,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, log)

	a.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func newDataStore(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (repository.DataStore, error) {
	if cfg.Driver == config.DriverMemory {
		store := repository.NewMemoryDataStore()
		if cfg.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.SeedFile); err != nil {
				return nil, err
			}
		}
		log.Warn().Str("seed_file", cfg.SeedFile).Msg("Using in-memory data store")
		return store, nil
	}

	db, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}

	store := repository.NewPostgresDataStore(db, log)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("Database connection established")
	return store, nil
}

// newArchive returns nil when no archive endpoint is configured or the
// archive cannot be reached at startup; calculations then skip the snapshot.
func newArchive(ctx context.Context, cfg config.ArchiveConfig, log zerolog.Logger) repository.ArchiveRepository {
	if !cfg.Configured() {
		log.Warn().Str("provider", cfg.Provider).Msg("No archive endpoint configured, snapshots will be skipped")
		return nil
	}

	var (
		archive repository.ArchiveRepository
		err     error
	)

	switch cfg.Provider {
	case config.ArchiveMongo:
		archive, err = repository.NewMongoArchiveRepository(ctx, cfg.Mongo, log)
	case config.ArchiveMinIO:
		archive, err = repository.NewMinIOArchiveRepository(cfg.MinIO, log)
	case config.ArchiveMemory:
		archive = repository.NewMemoryArchiveRepository()
	}
	if err != nil {
		log.Error().Err(err).Str("provider", cfg.Provider).Msg("Failed to initialise archive, snapshots will be skipped")
		return nil
	}

	if indexer, ok := archive.(interface{ EnsureIndexes(context.Context) error }); ok {
		idxCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		if err := indexer.EnsureIndexes(idxCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to ensure archive indexes")
		}
		cancel()
	}

	log.Info().Str("provider", archive.Name()).Msg("Archive configured")
	return archive
}

// newMessaging connects to RabbitMQ. The service keeps running without the
// broker when it is unreachable.
func newMessaging(cfg config.RabbitMQConfig, log zerolog.Logger) (repository.RabbitMQRepository, service.EventPublisher, queue.RabbitMQConsumer) {
	repo, err := repository.NewRabbitMQRepository(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("RabbitMQ unavailable, continuing without asynchronous recalculation")
		return nil, nil, nil
	}

	if err := repo.SetupQueue(cfg.QueueName, cfg.RequestRoutingKey); err != nil {
		log.Error().Err(err).Msg("Failed to set up RabbitMQ queue, continuing without asynchronous recalculation")
		_ = repo.Close()
		return nil, nil, nil
	}

	publisher := queue.NewRabbitMQPublisher(repo.Channel(), cfg.Exchange, cfg.CompletedRoutingKey, log)
	consumer := queue.NewRabbitMQConsumer(repo.Channel(), cfg.QueueName, cfg.ConsumerTag, cfg.PrefetchCount, log)

	return repo, publisher, consumer
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run(ctx context.Context) error {
	if a.statisticsWorker != nil {
		if err := a.statisticsWorker.Start(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to start statistics worker")
			return err
		}
	}

	a.logger.Info().
		Str("address", a.config.Server.Address).
		Str("database", a.store.Driver()).
		Msg("Starting stats service")

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down stats service...")

	serverErr := a.server.Shutdown(ctx)
	if serverErr != nil {
		a.logger.Error().Err(serverErr).Msg("Failed to shutdown HTTP server")
	}

	if a.statisticsWorker != nil {
		if err := a.statisticsWorker.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop statistics worker")
		}
	}

	if a.rabbitMQRepo != nil {
		if err := a.rabbitMQRepo.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.archive != nil {
		closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.archive.Close(closeCtx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close archive")
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close data store")
	}

	a.logger.Info().Msg("Stats service stopped")
	return serverErr
}
