package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/rlsguard/stats-service/internal/models"
	"github.com/rlsguard/stats-service/internal/repository"
	"github.com/rlsguard/stats-service/pkg/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type StatisticsService interface {
	Calculate(ctx context.Context, req models.CalculateStatisticsRequest) (*CalculationResult, error)
	GetLatest(ctx context.Context, classroomID string) (*models.ClassStatistics, error)
	GetHistory(ctx context.Context, classroomID string, limit, offset int) (*models.StatisticsHistoryResponse, error)
}

// EventPublisher announces finished calculations. Delivery is best-effort.
type EventPublisher interface {
	PublishStatisticsCalculated(ctx context.Context, event models.StatisticsCalculatedEvent) error
}

// CalculationResult carries the outcome of both persistence phases.
// Statistics is nil when the classroom had nothing to aggregate; in that case
// nothing was written.
type CalculationResult struct {
	Statistics *models.ClassStatisticsPayload
	SummaryID  string
	Archive    ArchiveResult
}

// ArchiveResult is reported to the log and the response, never returned as
// the operation's error.
type ArchiveResult struct {
	Status models.ArchiveStatus
	Err    error
}

type StatisticsConfig struct {
	ArchiveTimeout time.Duration
}

type statisticsService struct {
	store     repository.DataStore
	archive   repository.ArchiveRepository
	publisher EventPublisher
	validate  *validator.Validate
	logger    zerolog.Logger
	config    StatisticsConfig
	now       func() time.Time
}

// NewStatisticsService wires the aggregator. archive and publisher may be nil,
// meaning no archive endpoint is configured or no broker is available.
func NewStatisticsService(
	store repository.DataStore,
	archive repository.ArchiveRepository,
	publisher EventPublisher,
	logger zerolog.Logger,
	config StatisticsConfig,
) StatisticsService {
	return &statisticsService{
		store:     store,
		archive:   archive,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

func (s *statisticsService) Calculate(ctx context.Context, req models.CalculateStatisticsRequest) (*CalculationResult, error) {
	req.ClassroomID = strings.TrimSpace(req.ClassroomID)
	req.SchoolID = strings.TrimSpace(req.SchoolID)

	if err := s.validate.Struct(req); err != nil {
		return nil, ErrInvalidRequest
	}

	log := s.logger.With().
		Str("classroom_id", req.ClassroomID).
		Str("school_id", req.SchoolID).
		Logger()

	records, err := s.store.Progress().GetByClassroomID(ctx, req.ClassroomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProgressFetch, err)
	}

	calculatedAt := s.now().UTC()
	payload, ok := Aggregate(req.ClassroomID, req.SchoolID, records, calculatedAt)
	if !ok {
		if len(records) > 0 {
			log.Warn().
				Int("excluded_records", len(records)).
				Msg("No progress record has a defined percentage, nothing to aggregate")
		} else {
			log.Info().Msg("No progress data found")
		}
		return &CalculationResult{Archive: ArchiveResult{Status: models.ArchiveStatusSkipped}}, nil
	}

	if payload.Metadata.ExcludedRecords > 0 {
		log.Warn().
			Int("excluded_records", payload.Metadata.ExcludedRecords).
			Msg("Excluded progress records with undefined percentage")
	}

	// Phase 1: the summary row is the system of record.
	summary := payload.Summary(utils.GenerateUUID())
	if err := s.store.Statistics().Create(ctx, summary); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSummaryWrite, err)
	}

	// Phase 2: best-effort archive of the full snapshot.
	archive := s.archiveSnapshot(ctx, log, summary.ID, payload)

	log.Info().
		Str("summary_id", summary.ID).
		Float64("average_score", payload.AverageScore).
		Int("total_assignments", payload.TotalAssignments).
		Int("total_students", payload.TotalStudents).
		Str("archive_status", archive.Status.String()).
		Msg("Class statistics calculated")

	s.publishCalculated(ctx, log, summary, archive.Status)

	return &CalculationResult{
		Statistics: payload,
		SummaryID:  summary.ID,
		Archive:    archive,
	}, nil
}

func (s *statisticsService) archiveSnapshot(ctx context.Context, log zerolog.Logger, summaryID string, payload *models.ClassStatisticsPayload) ArchiveResult {
	if s.archive == nil {
		log.Debug().Msg("No archive configured, skipping snapshot")
		return ArchiveResult{Status: models.ArchiveStatusSkipped}
	}

	if s.config.ArchiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ArchiveTimeout)
		defer cancel()
	}

	snapshot := models.NewSnapshot(summaryID, payload, s.now().UTC())
	if err := s.archive.Insert(ctx, snapshot); err != nil {
		err = fmt.Errorf("%w: %w", ErrArchiveWrite, err)
		log.Error().
			Err(err).
			Str("archive", s.archive.Name()).
			Str("summary_id", summaryID).
			Msg("Failed to archive statistics snapshot")
		return ArchiveResult{Status: models.ArchiveStatusFailed, Err: err}
	}

	log.Info().
		Str("archive", s.archive.Name()).
		Str("summary_id", summaryID).
		Msg("Statistics snapshot archived")
	return ArchiveResult{Status: models.ArchiveStatusArchived}
}

func (s *statisticsService) publishCalculated(ctx context.Context, log zerolog.Logger, summary *models.ClassStatistics, status models.ArchiveStatus) {
	if s.publisher == nil {
		return
	}

	event := models.StatisticsCalculatedEvent{
		EventID:          utils.GenerateUUID(),
		SummaryID:        summary.ID,
		ClassroomID:      summary.ClassroomID,
		SchoolID:         summary.SchoolID,
		AverageScore:     summary.AverageScore,
		TotalAssignments: summary.TotalAssignments,
		TotalStudents:    summary.TotalStudents,
		ArchiveStatus:    status,
		CalculatedAt:     summary.CalculationDate,
	}

	if err := s.publisher.PublishStatisticsCalculated(ctx, event); err != nil {
		log.Error().Err(err).Str("summary_id", summary.ID).Msg("Failed to publish statistics calculated event")
	}
}

func (s *statisticsService) GetLatest(ctx context.Context, classroomID string) (*models.ClassStatistics, error) {
	if strings.TrimSpace(classroomID) == "" {
		return nil, ErrInvalidRequest
	}

	stats, err := s.store.Statistics().GetLatestByClassroomID(ctx, classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest statistics: %w", err)
	}
	if stats == nil {
		return nil, ErrStatisticsNotFound
	}

	return stats, nil
}

func (s *statisticsService) GetHistory(ctx context.Context, classroomID string, limit, offset int) (*models.StatisticsHistoryResponse, error) {
	if strings.TrimSpace(classroomID) == "" {
		return nil, ErrInvalidRequest
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.store.Statistics().ListByClassroomID(ctx, classroomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list statistics: %w", err)
	}

	return &models.StatisticsHistoryResponse{
		ClassroomID: classroomID,
		Statistics:  rows,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	}, nil
}
