package models

import "time"

// Data Transfer Objects

type CalculateStatisticsRequest struct {
	ClassroomID string `json:"classroom_id" validate:"required"`
	SchoolID    string `json:"school_id" validate:"required"`
}

type CalculateStatisticsResponse struct {
	Success       bool                    `json:"success"`
	Statistics    *ClassStatisticsPayload `json:"statistics"`
	Message       string                  `json:"message"`
	ArchiveStatus ArchiveStatus           `json:"archive_status,omitempty"`
}

type NoDataResponse struct {
	Message    string                  `json:"message"`
	Statistics *ClassStatisticsPayload `json:"statistics"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type StatisticsHistoryResponse struct {
	ClassroomID string            `json:"classroom_id"`
	Statistics  []ClassStatistics `json:"statistics"`
	Total       int               `json:"total"`
	Limit       int               `json:"limit"`
	Offset      int               `json:"offset"`
}

type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type ReadinessResponse struct {
	Status        string          `json:"status"`
	Database      DependencyState `json:"database"`
	Archive       DependencyState `json:"archive"`
	ActiveWorkers int             `json:"active_workers"`
	QueueLength   int             `json:"queue_length"`
	BrokerBacklog int             `json:"broker_backlog"`
	Uptime        string          `json:"uptime"`
	Timestamp     time.Time       `json:"timestamp"`
}

type DependencyState struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}
