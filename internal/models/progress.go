package models

import (
	"math"
	"time"
)

// ProgressRecord is one graded assignment submission, joined with the
// student's display name and the classroom name when those are known.
type ProgressRecord struct {
	ID             string    `json:"id" db:"id"`
	StudentID      string    `json:"student_id" db:"student_id"`
	ClassroomID    string    `json:"classroom_id" db:"classroom_id"`
	SchoolID       string    `json:"school_id" db:"school_id"`
	AssignmentName string    `json:"assignment_name" db:"assignment_name"`
	Score          float64   `json:"score" db:"score"`
	MaxScore       float64   `json:"max_score" db:"max_score"`
	AssignmentDate time.Time `json:"assignment_date" db:"assignment_date"`
	Notes          *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	StudentName    *string   `json:"student_name,omitempty" db:"student_name"`
	ClassroomName  *string   `json:"classroom_name,omitempty" db:"classroom_name"`
}

// Percentage returns score / max_score * 100. ok is false when the record
// cannot produce a finite percentage (max_score <= 0 or non-finite input).
func (p ProgressRecord) Percentage() (pct float64, ok bool) {
	if p.MaxScore <= 0 || math.IsNaN(p.MaxScore) || math.IsInf(p.MaxScore, 0) {
		return 0, false
	}
	if math.IsNaN(p.Score) || math.IsInf(p.Score, 0) {
		return 0, false
	}

	pct = p.Score / p.MaxScore * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, false
	}
	return pct, true
}
