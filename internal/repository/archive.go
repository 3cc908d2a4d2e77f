package repository

import (
	"context"

	"github.com/rlsguard/stats-service/internal/models"
)

// ArchiveRepository is the secondary, best-effort analytical copy of every
// calculation. Callers never treat its errors as fatal.
type ArchiveRepository interface {
	Name() string
	Insert(ctx context.Context, snapshot *models.ClassStatisticsSnapshot) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
