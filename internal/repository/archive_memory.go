package repository

import (
	"context"
	"sync"

	"github.com/rlsguard/stats-service/internal/config"
	"github.com/rlsguard/stats-service/internal/models"
)

type MemoryArchiveRepository struct {
	mu        sync.RWMutex
	snapshots []models.ClassStatisticsSnapshot
}

func NewMemoryArchiveRepository() *MemoryArchiveRepository {
	return &MemoryArchiveRepository{}
}

func (r *MemoryArchiveRepository) Name() string {
	return config.ArchiveMemory
}

func (r *MemoryArchiveRepository) Insert(ctx context.Context, snapshot *models.ClassStatisticsSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots = append(r.snapshots, *snapshot)
	return nil
}

func (r *MemoryArchiveRepository) Snapshots() []models.ClassStatisticsSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ClassStatisticsSnapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

func (r *MemoryArchiveRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryArchiveRepository) Close(ctx context.Context) error {
	return nil
}
