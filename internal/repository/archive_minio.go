package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/config"
	"github.com/rlsguard/stats-service/internal/models"
)

// minioArchiveRepository stores each snapshot as a JSON object keyed by
// school, classroom and snapshot id.
type minioArchiveRepository struct {
	client *minio.Client
	bucket string
	region string
	logger zerolog.Logger

	mu          sync.Mutex
	bucketReady bool
}

func NewMinIOArchiveRepository(cfg config.MinIOConfig, logger zerolog.Logger) (ArchiveRepository, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Msg("MinIO archive configured")

	return &minioArchiveRepository{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: logger,
	}, nil
}

func (r *minioArchiveRepository) Name() string {
	return config.ArchiveMinIO
}

func (r *minioArchiveRepository) Insert(ctx context.Context, snapshot *models.ClassStatisticsSnapshot) error {
	if err := r.ensureBucket(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal statistics snapshot: %w", err)
	}

	_, err = r.client.PutObject(ctx, r.bucket, SnapshotObjectKey(snapshot), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload statistics snapshot: %w", err)
	}

	return nil
}

func (r *minioArchiveRepository) ensureBucket(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bucketReady {
		return nil
	}

	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{Region: r.region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		r.logger.Info().Str("bucket", r.bucket).Msg("Created archive bucket")
	}

	r.bucketReady = true
	return nil
}

func (r *minioArchiveRepository) Ping(ctx context.Context) error {
	_, err := r.client.BucketExists(ctx, r.bucket)
	return err
}

func (r *minioArchiveRepository) Close(ctx context.Context) error {
	return nil
}

// SnapshotObjectKey is the object name a snapshot is stored under.
func SnapshotObjectKey(snapshot *models.ClassStatisticsSnapshot) string {
	return fmt.Sprintf("%s/%s/%s.json", snapshot.SchoolID, snapshot.ClassroomID, snapshot.SnapshotID)
}
