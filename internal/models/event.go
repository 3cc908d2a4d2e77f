package models

import (
	"time"
)

// StatisticsRequestedEvent asks for a recalculation, typically published by
// the web application after a progress entry is created or edited.
type StatisticsRequestedEvent struct {
	ClassroomID string    `json:"classroom_id"`
	SchoolID    string    `json:"school_id"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

type StatisticsCalculatedEvent struct {
	EventID          string        `json:"event_id"`
	SummaryID        string        `json:"summary_id"`
	ClassroomID      string        `json:"classroom_id"`
	SchoolID         string        `json:"school_id"`
	AverageScore     float64       `json:"average_score"`
	TotalAssignments int           `json:"total_assignments"`
	TotalStudents    int           `json:"total_students"`
	ArchiveStatus    ArchiveStatus `json:"archive_status"`
	CalculatedAt     time.Time     `json:"calculated_at"`
}
