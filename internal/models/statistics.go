package models

import "time"

// ClassStatistics is the summary row appended to class_statistics on every run.
type ClassStatistics struct {
	ID               string    `json:"id" db:"id"`
	ClassroomID      string    `json:"classroom_id" db:"classroom_id"`
	SchoolID         string    `json:"school_id" db:"school_id"`
	AverageScore     float64   `json:"average_score" db:"average_score"`
	TotalAssignments int       `json:"total_assignments" db:"total_assignments"`
	TotalStudents    int       `json:"total_students" db:"total_students"`
	CalculationDate  time.Time `json:"calculation_date" db:"calculation_date"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

type AssignmentStatistics struct {
	AssignmentName   string  `json:"assignment_name" bson:"assignment_name"`
	AverageScore     float64 `json:"average_score" bson:"average_score"`
	TotalSubmissions int     `json:"total_submissions" bson:"total_submissions"`
	HighestScore     float64 `json:"highest_score" bson:"highest_score"`
	LowestScore      float64 `json:"lowest_score" bson:"lowest_score"`
}

type StudentStatistics struct {
	StudentID        string  `json:"student_id" bson:"student_id"`
	StudentName      string  `json:"student_name" bson:"student_name"`
	AverageScore     float64 `json:"average_score" bson:"average_score"`
	TotalAssignments int     `json:"total_assignments" bson:"total_assignments"`
	HighestScore     float64 `json:"highest_score" bson:"highest_score"`
	LowestScore      float64 `json:"lowest_score" bson:"lowest_score"`
}

type StatisticsMetadata struct {
	CalculatedAt    time.Time `json:"calculated_at" bson:"calculated_at"`
	TotalDataPoints int       `json:"total_data_points" bson:"total_data_points"`
	ExcludedRecords int       `json:"excluded_records" bson:"excluded_records"`
}

// ClassStatisticsPayload is the full computed result returned to callers.
type ClassStatisticsPayload struct {
	ClassroomID          string                 `json:"classroom_id" bson:"classroom_id"`
	SchoolID             string                 `json:"school_id" bson:"school_id"`
	AverageScore         float64                `json:"average_score" bson:"average_score"`
	TotalAssignments     int                    `json:"total_assignments" bson:"total_assignments"`
	TotalStudents        int                    `json:"total_students" bson:"total_students"`
	CalculationDate      time.Time              `json:"calculation_date" bson:"calculation_date"`
	AssignmentStatistics []AssignmentStatistics `json:"assignment_statistics" bson:"assignment_statistics"`
	StudentStatistics    []StudentStatistics    `json:"student_statistics" bson:"student_statistics"`
	Metadata             StatisticsMetadata     `json:"metadata" bson:"metadata"`
}

// Summary projects the payload onto the relational summary row.
func (p *ClassStatisticsPayload) Summary(id string) *ClassStatistics {
	return &ClassStatistics{
		ID:               id,
		ClassroomID:      p.ClassroomID,
		SchoolID:         p.SchoolID,
		AverageScore:     p.AverageScore,
		TotalAssignments: p.TotalAssignments,
		TotalStudents:    p.TotalStudents,
		CalculationDate:  p.CalculationDate,
		CreatedAt:        p.CalculationDate,
	}
}

// ClassStatisticsSnapshot is the archived document. SnapshotID equals the id
// of the summary row written in the same run.
type ClassStatisticsSnapshot struct {
	SnapshotID string `json:"snapshot_id" bson:"snapshot_id"`

	ClassStatisticsPayload `bson:",inline"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func NewSnapshot(summaryID string, payload *ClassStatisticsPayload, now time.Time) *ClassStatisticsSnapshot {
	return &ClassStatisticsSnapshot{
		SnapshotID:             summaryID,
		ClassStatisticsPayload: *payload,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

type ArchiveStatus string

const (
	ArchiveStatusArchived ArchiveStatus = "archived"
	ArchiveStatusFailed   ArchiveStatus = "failed"
	ArchiveStatusSkipped  ArchiveStatus = "skipped"
)

func (s ArchiveStatus) String() string {
	return string(s)
}
