package repository

import (
	"context"

	"github.com/rlsguard/stats-service/internal/models"
)

// ProgressRepository is the read side owned by the web application.
type ProgressRepository interface {
	GetByClassroomID(ctx context.Context, classroomID string) ([]models.ProgressRecord, error)
}

// StatisticsRepository stores summary rows. Rows are only ever appended.
type StatisticsRepository interface {
	Create(ctx context.Context, stats *models.ClassStatistics) error
	GetLatestByClassroomID(ctx context.Context, classroomID string) (*models.ClassStatistics, error)
	ListByClassroomID(ctx context.Context, classroomID string, limit, offset int) ([]models.ClassStatistics, int, error)
}

// DataStore is the relational system of record. The postgres implementation
// talks to the managed database; the memory implementation is selected with
// database.driver=memory for local runs and tests.
type DataStore interface {
	Progress() ProgressRepository
	Statistics() StatisticsRepository
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
