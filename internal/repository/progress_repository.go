package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rlsguard/stats-service/internal/models"
)

type progressRepository struct {
	*PostgresRepository
}

func (r *progressRepository) GetByClassroomID(ctx context.Context, classroomID string) ([]models.ProgressRecord, error) {
	query := `
		SELECT
			sp.id, sp.student_id, sp.classroom_id, sp.school_id, sp.assignment_name,
			sp.score, sp.max_score, sp.assignment_date, sp.notes,
			sp.created_at, sp.updated_at,
			p.full_name, c.name
		FROM student_progress sp
		LEFT JOIN profiles p ON p.id = sp.student_id
		LEFT JOIN classrooms c ON c.id = sp.classroom_id
		WHERE sp.classroom_id = $1
		ORDER BY sp.created_at, sp.id
	`

	rows, err := r.db.QueryContext(ctx, query, classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student progress: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var record models.ProgressRecord
		var notes, studentName, classroomName sql.NullString

		if err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.ClassroomID,
			&record.SchoolID,
			&record.AssignmentName,
			&record.Score,
			&record.MaxScore,
			&record.AssignmentDate,
			&notes,
			&record.CreatedAt,
			&record.UpdatedAt,
			&studentName,
			&classroomName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan student progress: %w", err)
		}

		record.Notes = nullStringPtr(notes)
		record.StudentName = nullStringPtr(studentName)
		record.ClassroomName = nullStringPtr(classroomName)

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate student progress: %w", err)
	}

	r.logger.Debug().
		Str("classroom_id", classroomID).
		Int("records", len(records)).
		Msg("Fetched student progress")

	return records, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
