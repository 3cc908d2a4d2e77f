package service

import "errors"

// Sentinel errors mapped onto HTTP status codes by the delivery layer.
var (
	ErrInvalidRequest = errors.New("classroom_id and school_id are required")
	ErrProgressFetch  = errors.New("failed to fetch progress data")
	ErrSummaryWrite   = errors.New("failed to save class statistics")
	ErrArchiveWrite   = errors.New("failed to archive statistics snapshot")
)

var ErrStatisticsNotFound = errors.New("no statistics calculated for this classroom")
