package repository

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type PostgresRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type postgresDataStore struct {
	*PostgresRepository
	progress   ProgressRepository
	statistics StatisticsRepository
}

// NewPostgresDataStore backs both repositories with the same connection pool.
func NewPostgresDataStore(db *sql.DB, logger zerolog.Logger) DataStore {
	base := NewPostgresRepository(db, logger)
	return &postgresDataStore{
		PostgresRepository: base,
		progress:           &progressRepository{PostgresRepository: base},
		statistics:         &statisticsRepository{PostgresRepository: base},
	}
}

func (s *postgresDataStore) Progress() ProgressRepository {
	return s.progress
}

func (s *postgresDataStore) Statistics() StatisticsRepository {
	return s.statistics
}

func (s *postgresDataStore) Driver() string {
	return "postgres"
}
