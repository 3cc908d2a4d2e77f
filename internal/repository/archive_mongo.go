package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rlsguard/stats-service/internal/config"
	"github.com/rlsguard/stats-service/internal/models"
)

type mongoArchiveRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     zerolog.Logger
}

// NewMongoArchiveRepository builds the client without waiting for a server;
// connection problems surface on the first Insert.
func NewMongoArchiveRepository(ctx context.Context, cfg config.MongoConfig, logger zerolog.Logger) (ArchiveRepository, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	logger.Info().
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("Mongo archive configured")

	return &mongoArchiveRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

func (r *mongoArchiveRepository) Name() string {
	return config.ArchiveMongo
}

func (r *mongoArchiveRepository) Insert(ctx context.Context, snapshot *models.ClassStatisticsSnapshot) error {
	if _, err := r.collection.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert statistics snapshot: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup index used by analytical queries.
func (r *mongoArchiveRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "classroom_id", Value: 1},
			{Key: "calculation_date", Value: -1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create snapshot index: %w", err)
	}
	return nil
}

func (r *mongoArchiveRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *mongoArchiveRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
