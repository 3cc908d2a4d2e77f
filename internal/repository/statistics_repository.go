package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rlsguard/stats-service/internal/models"
)

type statisticsRepository struct {
	*PostgresRepository
}

func (r *statisticsRepository) Create(ctx context.Context, stats *models.ClassStatistics) error {
	query := `
		INSERT INTO class_statistics (
			id, classroom_id, school_id, average_score,
			total_assignments, total_students, calculation_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		stats.ID,
		stats.ClassroomID,
		stats.SchoolID,
		stats.AverageScore,
		stats.TotalAssignments,
		stats.TotalStudents,
		stats.CalculationDate,
		stats.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert class statistics: %w", err)
	}

	return nil
}

func (r *statisticsRepository) GetLatestByClassroomID(ctx context.Context, classroomID string) (*models.ClassStatistics, error) {
	query := `
		SELECT
			id, classroom_id, school_id, average_score,
			total_assignments, total_students, calculation_date, created_at
		FROM class_statistics
		WHERE classroom_id = $1
		ORDER BY calculation_date DESC, created_at DESC
		LIMIT 1
	`

	stats := &models.ClassStatistics{}
	err := r.db.QueryRowContext(ctx, query, classroomID).Scan(
		&stats.ID,
		&stats.ClassroomID,
		&stats.SchoolID,
		&stats.AverageScore,
		&stats.TotalAssignments,
		&stats.TotalStudents,
		&stats.CalculationDate,
		&stats.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest class statistics: %w", err)
	}

	return stats, nil
}

func (r *statisticsRepository) ListByClassroomID(ctx context.Context, classroomID string, limit, offset int) ([]models.ClassStatistics, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM class_statistics WHERE classroom_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, classroomID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count class statistics: %w", err)
	}

	query := `
		SELECT
			id, classroom_id, school_id, average_score,
			total_assignments, total_students, calculation_date, created_at
		FROM class_statistics
		WHERE classroom_id = $1
		ORDER BY calculation_date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, classroomID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list class statistics: %w", err)
	}
	defer rows.Close()

	statistics := make([]models.ClassStatistics, 0, limit)
	for rows.Next() {
		var stats models.ClassStatistics
		if err := rows.Scan(
			&stats.ID,
			&stats.ClassroomID,
			&stats.SchoolID,
			&stats.AverageScore,
			&stats.TotalAssignments,
			&stats.TotalStudents,
			&stats.CalculationDate,
			&stats.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan class statistics: %w", err)
		}
		statistics = append(statistics, stats)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate class statistics: %w", err)
	}

	return statistics, total, nil
}
